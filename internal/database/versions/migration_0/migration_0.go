package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

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

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&Generation{})
}
