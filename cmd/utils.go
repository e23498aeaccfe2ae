package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"wan-videogen/internal/config"
	"wan-videogen/internal/database"
	"wan-videogen/internal/storage"

	"gorm.io/gorm"
)

// BoolValue is a flag that takes an explicit boolean word, so that
// "--offload_model False" parses the way the Python scripts accept it.
type BoolValue bool

func (b *BoolValue) String() string {
	if b == nil {
		return "false"
	}
	if *b {
		return "true"
	}
	return "false"
}

func (b *BoolValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "yes", "true", "t", "y", "1":
		*b = true
	case "no", "false", "f", "n", "0":
		*b = false
	default:
		return fmt.Errorf("boolean value expected, got %q", s)
	}
	return nil
}

// SplitKnownArgs separates the arguments fs defines from everything else.
// Unknown flags and their values are returned untouched, in order, so they can
// be forwarded to another program.
func SplitKnownArgs(fs *flag.FlagSet, args []string) (known, unknown []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			unknown = append(unknown, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			unknown = append(unknown, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		hasValue := false
		if eq := strings.Index(name, "="); eq >= 0 {
			name, hasValue = name[:eq], true
		}

		// -h and --help are handled by fs itself and print this program's usage.
		if name == "h" || name == "help" {
			known = append(known, arg)
			continue
		}

		f := fs.Lookup(name)
		if f == nil {
			unknown = append(unknown, arg)
			continue
		}

		known = append(known, arg)
		if hasValue || isBoolFlag(f) {
			continue
		}
		if i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}
	return known, unknown
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// OpenHistory opens the history database named by cfg. History is optional:
// it returns nil when HISTORY_DB is unset or the database cannot be opened.
func OpenHistory(cfg config.Config) *gorm.DB {
	if cfg.HistoryDB == "" {
		slog.Info("HISTORY_DB not set, generation history disabled")
		return nil
	}

	db, err := database.Open(cfg.HistoryDB)
	if err != nil {
		slog.Error("error opening history database, continuing without history", "path", cfg.HistoryDB, "error", err)
		return nil
	}
	return db
}

// NewOutputStore returns the store generated videos are published to. An
// OUTPUT_BUCKET selects S3, otherwise PUBLISH_DIR selects a local directory.
// It returns nil when neither is configured or the store cannot be set up.
func NewOutputStore(ctx context.Context, cfg config.Config) storage.ObjectStore {
	store, err := newOutputStore(ctx, cfg)
	if err != nil {
		slog.Error("error creating output store, continuing without publishing", "error", err)
		return nil
	}
	return store
}

func newOutputStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	switch {
	case cfg.OutputBucket != "":
		log.Printf("publishing outputs to s3://%s/%s", cfg.OutputBucket, cfg.OutputPrefix)
		store, err := storage.NewS3ObjectStore(cfg.OutputBucket, storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		if err := store.CreateBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case cfg.PublishDir != "":
		log.Printf("publishing outputs to %s", cfg.PublishDir)
		store, err := storage.NewLocalObjectStore(cfg.PublishDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}
