package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	RunSucceeded string = "SUCCEEDED"
	RunFailed    string = "FAILED"
)

// Generation is one video produced by the fast generator.
type Generation struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Task          string `gorm:"size:20;not null;index"`
	CheckpointDir string
	DeviceId      int
	Size          string `gorm:"size:20;not null"`
	Prompt        string `gorm:"not null"`
	RefImages     string
	FrameNum      int
	SampleSteps   int
	SampleShift   float64
	SampleSolver  string `gorm:"size:20"`
	GuideScale    float64
	Seed          int64
	OutputPath    string
	ObjectURI     sql.NullString
	Status        string `gorm:"size:20;not null"`
	Error         string
	DurationMs    int64
	CreationTime  time.Time `gorm:"index"`
}

// PromptRun is one image-to-video invocation, with the prompt that was used.
type PromptRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ImagePath      string
	TextPath       string
	Reasoning      string
	OriginalPrompt string
	FinalPrompt    string
	ParseKind      string `gorm:"size:20"`
	Provider       string `gorm:"size:20"`
	Enhanced       bool
	EnhanceError   string
	Task           string `gorm:"size:20"`
	Size           string `gorm:"size:20"`
	ExitCode       int
	CreationTime   time.Time `gorm:"index"`
}
