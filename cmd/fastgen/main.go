package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"wan-videogen/cmd"
	"wan-videogen/internal/config"
	"wan-videogen/internal/database"
	"wan-videogen/internal/generator"
	"wan-videogen/internal/pipeline"
	"wan-videogen/internal/storage"
	"wan-videogen/internal/wan"

	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
)

type options struct {
	Task          string
	CheckpointDir string
	DeviceID      int
	SrcRefImages  string
	Prompt        string
	PromptFile    string
	SaveFile      string
	Size          string
	FrameNum      int
	SampleSteps   int
	SampleShift   float64
	SampleSolver  string
	GuideScale    float64
	BaseSeed      int64
	OffloadModel  cmd.BoolValue
	EnvFile       string
}

func parseOptions(args []string, output io.Writer) (options, error) {
	opts := options{OffloadModel: true}

	fs := flag.NewFlagSet("fastgen", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.Task, "task", "vace-1.3B", "task to run")
	fs.StringVar(&opts.CheckpointDir, "ckpt_dir", "", "checkpoint directory (required)")
	fs.IntVar(&opts.DeviceID, "device_id", 0, "device to load the pipeline on")
	fs.StringVar(&opts.SrcRefImages, "src_ref_images", "", "comma-separated reference images")
	fs.StringVar(&opts.Prompt, "prompt", "", "prompt to generate from (required unless --prompt_file)")
	fs.StringVar(&opts.PromptFile, "prompt_file", "", "file with one prompt per line, generated in order")
	fs.StringVar(&opts.SaveFile, "save_file", "", "output video path")
	fs.StringVar(&opts.Size, "size", generator.DefaultSize, "output size, width*height")
	fs.IntVar(&opts.FrameNum, "frame_num", generator.DefaultFrameNum, "number of frames")
	fs.IntVar(&opts.SampleSteps, "sample_steps", generator.DefaultSampleSteps, "sampling steps")
	fs.Float64Var(&opts.SampleShift, "sample_shift", generator.DefaultSampleShift, "sampling shift")
	fs.StringVar(&opts.SampleSolver, "sample_solver", generator.DefaultSampleSolver, "sampling solver")
	fs.Float64Var(&opts.GuideScale, "sample_guide_scale", generator.DefaultGuideScale, "classifier free guidance scale")
	fs.Int64Var(&opts.BaseSeed, "base_seed", -1, "seed, negative for random")
	fs.Var(&opts.OffloadModel, "offload_model", "offload model weights between steps (true/false)")
	fs.StringVar(&opts.EnvFile, "env", "", "path to load env from")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.CheckpointDir == "" {
		return options{}, errors.New("--ckpt_dir is required")
	}
	if opts.Prompt == "" && opts.PromptFile == "" {
		return options{}, errors.New("--prompt is required")
	}
	if opts.Prompt != "" && opts.PromptFile != "" {
		return options{}, errors.New("--prompt and --prompt_file are mutually exclusive")
	}

	tables, err := wan.DefaultTables()
	if err != nil {
		return options{}, err
	}
	if _, err := tables.Resolution(opts.Size); err != nil {
		return options{}, err
	}
	// Unknown tasks are reported when the pipeline is acquired.
	if task, err := tables.Task(opts.Task); err == nil && !task.SupportsSize(opts.Size) {
		fmt.Fprintf(output, "Warning: size %s is not listed for task %s, the pipeline may reject it\n", opts.Size, opts.Task)
	}

	return opts, nil
}

func (o options) request(prompt string) generator.Request {
	return generator.Request{
		Prompt:       prompt,
		SrcRefImages: o.SrcRefImages,
		SaveFile:     o.SaveFile,
		Size:         o.Size,
		FrameNum:     o.FrameNum,
		SampleSteps:  o.SampleSteps,
		SampleShift:  o.SampleShift,
		SampleSolver: o.SampleSolver,
		GuideScale:   o.GuideScale,
		BaseSeed:     o.BaseSeed,
		OffloadModel: bool(o.OffloadModel),
	}
}

func readPrompts(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening prompt file: %w", err)
	}
	defer file.Close()

	var prompts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading prompt file: %w", err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s has no prompts", path)
	}
	return prompts, nil
}

type app struct {
	cache        *generator.PipelineCache
	history      *gorm.DB
	store        storage.ObjectStore
	outputPrefix string
	stdout       io.Writer
	progress     io.Writer
}

func run(ctx context.Context, opts options, a *app) error {
	gen, err := a.cache.Acquire(opts.Task, opts.CheckpointDir, opts.DeviceID)
	if err != nil {
		return fmt.Errorf("error loading pipeline: %w", err)
	}

	if opts.PromptFile == "" {
		return a.generate(ctx, gen, opts, opts.request(opts.Prompt))
	}

	prompts, err := readPrompts(opts.PromptFile)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(prompts),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetWriter(a.progress),
		progressbar.OptionClearOnFinish(),
	)
	for _, prompt := range prompts {
		req := opts.request(prompt)
		// A fixed save file would be overwritten by every prompt.
		req.SaveFile = ""
		if err := a.generate(ctx, gen, opts, req); err != nil {
			return err
		}
		bar.Add(1) //nolint:errcheck
	}
	return bar.Finish()
}

func (a *app) generate(ctx context.Context, gen *generator.Generator, opts options, req generator.Request) error {
	result, err := gen.Generate(ctx, req)
	a.record(ctx, opts, req, result, err)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Output: %s\n", result.OutputPath)
	return nil
}

// record saves the generation to history and publishes its output. Both are
// best effort; failures are logged and do not fail the generation.
func (a *app) record(ctx context.Context, opts options, req generator.Request, result generator.Result, genErr error) {
	var entry *database.Generation
	if a.history != nil {
		entry = &database.Generation{
			Task:          opts.Task,
			CheckpointDir: opts.CheckpointDir,
			DeviceId:      opts.DeviceID,
			Size:          req.Size,
			Prompt:        req.Prompt,
			RefImages:     req.SrcRefImages,
			FrameNum:      req.FrameNum,
			SampleSteps:   req.SampleSteps,
			SampleShift:   req.SampleShift,
			SampleSolver:  req.SampleSolver,
			GuideScale:    req.GuideScale,
			Seed:          result.Seed,
			OutputPath:    result.OutputPath,
			Status:        database.RunSucceeded,
			DurationMs:    result.Duration.Milliseconds(),
		}
		if genErr != nil {
			entry.Status = database.RunFailed
			entry.Error = genErr.Error()
		}
		if err := database.SaveGeneration(ctx, a.history, entry); err != nil {
			entry = nil
		}
	}

	if genErr != nil || a.store == nil {
		return
	}

	uri, err := storage.PublishFile(ctx, a.store, a.outputPrefix, result.OutputPath)
	if err != nil {
		slog.Error("error publishing video", "path", result.OutputPath, "error", err)
		return
	}
	fmt.Fprintf(a.stdout, "Published: %s\n", uri)

	if entry != nil {
		database.SetGenerationObjectURI(ctx, a.history, entry.Id, uri) //nolint:errcheck
	}
}

func newApp(ctx context.Context, cfg config.Config, cache *generator.PipelineCache) *app {
	return &app{
		cache:        cache,
		history:      cmd.OpenHistory(cfg),
		store:        cmd.NewOutputStore(ctx, cfg),
		outputPrefix: cfg.OutputPrefix,
		stdout:       os.Stdout,
		progress:     os.Stderr,
	}
}

// close releases every loaded pipeline and the history database.
func (a *app) close() {
	a.cache.Close()
	if a.history != nil {
		database.Close(a.history) //nolint:errcheck
	}
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(opts.EnvFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tables, err := wan.DefaultTables()
	if err != nil {
		log.Fatalf("Failed to load task tables: %v", err)
	}

	ctx := context.Background()
	loaders := pipeline.NewLoaders(cfg.PythonExecutable, cfg.PluginScript)
	a := newApp(ctx, cfg, generator.NewPipelineCache(generator.NewBuilder(tables, loaders)))

	start := time.Now()
	err = run(ctx, opts, a)
	a.close()
	if err != nil {
		log.Printf("Generation failed: %v", err)
		os.Exit(1)
	}
	slog.Info("done", "elapsed", time.Since(start))
}
