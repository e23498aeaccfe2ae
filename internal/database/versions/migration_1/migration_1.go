package migration_1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

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

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateTable(&PromptRun{}); err != nil {
		return fmt.Errorf("error creating prompt_runs table: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&PromptRun{}); err != nil {
		return fmt.Errorf("error dropping prompt_runs table: %w", err)
	}
	return nil
}
