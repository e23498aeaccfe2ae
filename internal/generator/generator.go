package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wan-videogen/internal/pipeline"
	"wan-videogen/internal/wan"
)

var ErrTaskNotImplemented = errors.New("task not yet supported in fast mode")

var supportedFamilies = map[wan.Family]struct{}{
	wan.FamilyVace: {},
}

// Generator keeps a loaded pipeline and forwards generation requests to it.
type Generator struct {
	task     wan.TaskConfig
	deviceID int
	tables   *wan.Tables
	pipeline pipeline.Pipeline
	seeds    SeedSource
	now      func() time.Time
}

type Result struct {
	OutputPath string
	Seed       int64
	Resolution wan.Resolution
	NumFrames  int
	Duration   time.Duration
}

// NewGenerator loads the pipeline for task. This is slow: the pipeline process
// loads every model weight before it returns.
func NewGenerator(tables *wan.Tables, loaders map[wan.Family]pipeline.Loader, task, checkpointDir string, deviceID int) (*Generator, error) {
	cfg, err := tables.Task(task)
	if err != nil {
		return nil, err
	}

	slog.Info("initializing generator", "task", task, "checkpoint_dir", checkpointDir, "device_id", deviceID)

	loader, ok := loaders[cfg.Family]
	if _, supported := supportedFamilies[cfg.Family]; !supported || !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotImplemented, task)
	}

	slog.Info("loading pipeline, this may take a while", "task", task, "family", cfg.Family)
	p, err := loader(pipeline.LoadConfig{
		Task:          task,
		CheckpointDir: checkpointDir,
		DeviceID:      deviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading %s pipeline: %w", task, err)
	}
	slog.Info("pipeline loaded", "task", task)

	return &Generator{
		task:     cfg,
		deviceID: deviceID,
		tables:   tables,
		pipeline: p,
		seeds:    SystemSeed,
		now:      time.Now,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	slog.Info("generating video", "task", g.task.Name, "prompt", req.Prompt)
	start := g.now()

	size, err := g.tables.Resolution(req.Size)
	if err != nil {
		return Result{}, err
	}

	seed, err := normalizeSeed(req.BaseSeed, g.seeds)
	if err != nil {
		return Result{}, err
	}

	refImages := splitRefImages(req.SrcRefImages)
	if refImages != nil {
		slog.Info("using reference images", "images", refImages)
	}

	prepared, err := g.pipeline.Prepare(ctx, pipeline.PrepareRequest{
		SrcVideo:     []string{""},
		SrcMask:      []string{""},
		SrcRefImages: refImages,
		FrameNum:     req.FrameNum,
		Size:         size,
		DeviceID:     g.deviceID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("error preparing source: %w", err)
	}

	frames, err := g.pipeline.Generate(ctx, pipeline.GenerateRequest{
		Prompt:        req.Prompt,
		PreparedID:    prepared.ID,
		Size:          size,
		FrameNum:      req.FrameNum,
		Shift:         req.SampleShift,
		SampleSolver:  req.SampleSolver,
		SamplingSteps: req.SampleSteps,
		GuideScale:    req.GuideScale,
		Seed:          seed,
		OffloadModel:  req.OffloadModel,
	})
	if err != nil {
		return Result{}, fmt.Errorf("error generating video: %w", err)
	}

	saveFile := req.SaveFile
	if saveFile == "" {
		saveFile = outputFileName(g.task.Name, req.Size, req.Prompt, g.now())
	}

	slog.Info("saving generated video", "path", saveFile, "frames", frames.NumFrames)
	if err := g.pipeline.SaveVideo(ctx, pipeline.SaveRequest{
		FramesID:   frames.ID,
		SaveFile:   saveFile,
		FPS:        g.task.SampleFPS,
		NRow:       1,
		Normalize:  true,
		ValueRange: [2]float64{-1, 1},
	}); err != nil {
		return Result{}, fmt.Errorf("error saving video to %s: %w", saveFile, err)
	}

	slog.Info("video generation complete", "path", saveFile)
	return Result{
		OutputPath: saveFile,
		Seed:       seed,
		Resolution: size,
		NumFrames:  frames.NumFrames,
		Duration:   g.now().Sub(start),
	}, nil
}

func (g *Generator) Release() {
	g.pipeline.Release()
}
