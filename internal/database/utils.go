package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func SaveGeneration(ctx context.Context, txn *gorm.DB, gen *Generation) error {
	if gen.Id == uuid.Nil {
		gen.Id = uuid.New()
	}
	if gen.CreationTime.IsZero() {
		gen.CreationTime = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Create(gen).Error; err != nil {
		slog.Error("error saving generation", "task", gen.Task, "error", err)
		return fmt.Errorf("error saving generation: %w", err)
	}
	return nil
}

// SetGenerationObjectURI records where the output video was published.
func SetGenerationObjectURI(ctx context.Context, txn *gorm.DB, id uuid.UUID, uri string) error {
	if err := txn.WithContext(ctx).Model(&Generation{Id: id}).
		Update("object_uri", sql.NullString{String: uri, Valid: true}).Error; err != nil {
		slog.Error("error updating generation object uri", "generation_id", id, "error", err)
		return err
	}
	return nil
}

// ListGenerations returns the most recent generations first. A limit of zero
// or less returns all of them.
func ListGenerations(ctx context.Context, txn *gorm.DB, task string, limit int) ([]Generation, error) {
	query := txn.WithContext(ctx).Order("creation_time DESC")
	if task != "" {
		query = query.Where("task = ?", task)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var gens []Generation
	if err := query.Find(&gens).Error; err != nil {
		return nil, fmt.Errorf("error listing generations: %w", err)
	}
	return gens, nil
}

func SavePromptRun(ctx context.Context, txn *gorm.DB, run *PromptRun) error {
	if run.Id == uuid.Nil {
		run.Id = uuid.New()
	}
	if run.CreationTime.IsZero() {
		run.CreationTime = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Create(run).Error; err != nil {
		slog.Error("error saving prompt run", "image", run.ImagePath, "error", err)
		return fmt.Errorf("error saving prompt run: %w", err)
	}
	return nil
}

func ListPromptRuns(ctx context.Context, txn *gorm.DB, limit int) ([]PromptRun, error) {
	query := txn.WithContext(ctx).Order("creation_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []PromptRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error listing prompt runs: %w", err)
	}
	return runs, nil
}
