package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"wan-videogen/cmd"
	"wan-videogen/internal/config"
	"wan-videogen/internal/database"
	"wan-videogen/internal/enhance"
	"wan-videogen/internal/invoker"
	"wan-videogen/internal/reasoning"

	"gorm.io/gorm"
)

var (
	rule = strings.Repeat("=", 80)
	dash = strings.Repeat("-", 80)
)

type options struct {
	Image         string
	Text          string
	APIKey        string
	Task          string
	Size          string
	CheckpointDir string
	OutputDir     string
	SkipClaude    bool
	Provider      string
	EnvFile       string

	// ExtraArgs are the arguments not recognized here, forwarded to the
	// generation script unchanged.
	ExtraArgs []string
}

func parseOptions(args []string, output io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("image2video", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.Image, "image", "video_gen_prompts/generated_image.png", "path to the generated image")
	fs.StringVar(&opts.Text, "text", "video_gen_prompts/prompt+reasoning.txt", "path to the text file containing reasoning and prompt")
	fs.StringVar(&opts.APIKey, "api-key", "", "LLM API key (or set ANTHROPIC_API_KEY)")
	fs.StringVar(&opts.Task, "task", "t2v-14B", "video generation task")
	fs.StringVar(&opts.Size, "size", "1280*720", "video size")
	fs.StringVar(&opts.CheckpointDir, "ckpt_dir", "./Wan2.1-T2V-14B", "checkpoint directory")
	fs.StringVar(&opts.OutputDir, "output_dir", "", "output directory for generated video")
	fs.BoolVar(&opts.SkipClaude, "skip-claude", false, "skip the LLM call and use the original prompt directly")
	fs.StringVar(&opts.Provider, "provider", "", "LLM provider, anthropic, openai or ollama (default from LLM_PROVIDER)")
	fs.StringVar(&opts.EnvFile, "env", "", "path to load env from")

	known, unknown := cmd.SplitKnownArgs(fs, args)
	if err := fs.Parse(known); err != nil {
		return options{}, err
	}
	opts.ExtraArgs = unknown

	return opts, nil
}

type commandRunner interface {
	Run(ctx context.Context, c invoker.Command) (int, error)
}

type app struct {
	cfg         config.Config
	newEnhancer func(cfg enhance.ProviderConfig) (enhance.Enhancer, error)
	runner      commandRunner
	history     *gorm.DB
	stdout      io.Writer
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// run executes the whole flow and returns the process exit code.
func run(ctx context.Context, opts options, a *app) int {
	out := a.stdout

	if !fileExists(opts.Image) {
		fmt.Fprintf(out, "✗ Error: Image file not found: %s\n", opts.Image)
		return 1
	}
	if !fileExists(opts.Text) {
		fmt.Fprintf(out, "✗ Error: Text file not found: %s\n", opts.Text)
		return 1
	}

	provider := enhance.Provider(opts.Provider)
	if provider == "" {
		provider = enhance.Provider(a.cfg.LLMProvider)
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = a.cfg.LLMAPIKey(string(provider))
	}
	if apiKey == "" && provider.RequiresAPIKey() && !opts.SkipClaude {
		fmt.Fprintln(out, "✗ Error: API key required. Set --api-key or ANTHROPIC_API_KEY env var")
		fmt.Fprintln(out, "   Or use --skip-claude to use the original prompt without enhancement")
		return 1
	}

	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "VIDEO GENERATION FROM IMAGE AND REASONING")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nImage: %s\n", opts.Image)
	fmt.Fprintf(out, "Text: %s\n", opts.Text)
	fmt.Fprintf(out, "Task: %s\n", opts.Task)
	fmt.Fprintf(out, "Size: %s\n", opts.Size)

	fmt.Fprintf(out, "\n%s\nREADING REASONING AND ORIGINAL PROMPT...\n%s\n", dash, dash)
	doc, err := reasoning.ParseFile(opts.Text)
	if err != nil {
		fmt.Fprintf(out, "✗ Error: %v\n", err)
		return 1
	}
	if doc.Kind == reasoning.Degraded {
		fmt.Fprintf(out, "\nWarning: %q not found, splitting the file in half\n", reasoning.EndMarker)
	}
	fmt.Fprintf(out, "\nOriginal prompt length: %d characters\n", len(doc.OriginalPrompt))
	fmt.Fprintf(out, "Reasoning length: %d characters\n", len(doc.Reasoning))
	fmt.Fprintf(out, "\nOriginal prompt:\n%s\n", doc.OriginalPrompt)

	record := &database.PromptRun{
		ImagePath:      opts.Image,
		TextPath:       opts.Text,
		Reasoning:      doc.Reasoning,
		OriginalPrompt: doc.OriginalPrompt,
		ParseKind:      doc.Kind.String(),
		Task:           opts.Task,
		Size:           opts.Size,
	}

	var videoPrompt string
	if opts.SkipClaude {
		fmt.Fprintln(out, "\nSkipping enhancement - using original prompt for video generation")
		videoPrompt = doc.OriginalPrompt
	} else {
		fmt.Fprintf(out, "\n%s\nGENERATING VIDEO PROMPT WITH %s...\n%s\n", dash, strings.ToUpper(string(provider)), dash)
		record.Provider = string(provider)

		outcome := a.enhance(ctx, provider, apiKey, opts.Image, doc)
		if outcome.Ok() {
			fmt.Fprintf(out, "\n✓ Generated video prompt:\n\n%s\n%s\n%s\n", rule, outcome.Prompt(), rule)
			record.Enhanced = true
		} else {
			fmt.Fprintf(out, "\n✗ Error calling %s API: %v\n", provider, outcome.Err())
			fmt.Fprintln(out, "Falling back to original prompt...")
			record.EnhanceError = outcome.Err().Error()
		}
		videoPrompt = outcome.PromptOr(doc.OriginalPrompt)
	}
	record.FinalPrompt = videoPrompt

	fmt.Fprintf(out, "\n%s\nGENERATING VIDEO...\n%s\n", dash, dash)
	command := invoker.Command{
		Python:        a.cfg.PythonExecutable,
		Script:        a.cfg.GenerateScript,
		Prompt:        videoPrompt,
		Task:          opts.Task,
		Size:          opts.Size,
		CheckpointDir: opts.CheckpointDir,
		OutputDir:     opts.OutputDir,
		ExtraArgs:     opts.ExtraArgs,
	}
	fmt.Fprintf(out, "\n%s\nEXECUTING VIDEO GENERATION COMMAND:\n%s\n%s\n\n", rule, command.String(), rule)

	code, err := a.runner.Run(ctx, command)
	if err != nil {
		fmt.Fprintf(out, "\n✗ Video generation could not start: %v\n", err)
		code = 1
	}
	record.ExitCode = code
	a.save(ctx, record)

	if code != 0 {
		if err == nil {
			fmt.Fprintf(out, "\n✗ Video generation failed with return code %d\n", code)
		}
		return code
	}

	fmt.Fprintln(out, "\n✓ Video generation completed successfully!")
	fmt.Fprintf(out, "\n%s\n✓ COMPLETE!\n%s\n", rule, rule)
	return 0
}

func (a *app) enhance(ctx context.Context, provider enhance.Provider, apiKey, imagePath string, doc reasoning.Document) enhance.Outcome {
	input, err := enhance.NewInputFromFile(imagePath, doc.Reasoning, doc.OriginalPrompt)
	if err != nil {
		return enhance.Failed(err)
	}

	enhancer, err := a.newEnhancer(enhance.ProviderConfig{
		Provider: provider,
		APIKey:   apiKey,
		BaseURL:  a.cfg.LLMBaseURL(string(provider)),
		Model:    a.cfg.LLMModel(string(provider)),
		Timeout:  a.cfg.LLMTimeout,
	})
	if err != nil {
		return enhance.Failed(err)
	}

	return enhancer.Enhance(ctx, input)
}

func (a *app) save(ctx context.Context, record *database.PromptRun) {
	if a.history == nil {
		return
	}
	database.SavePromptRun(ctx, a.history, record) //nolint:errcheck
}

func newApp(cfg config.Config, stdout io.Writer) *app {
	return &app{
		cfg:         cfg,
		newEnhancer: enhance.New,
		runner:      invoker.Runner{},
		history:     cmd.OpenHistory(cfg),
		stdout:      stdout,
	}
}

func (a *app) close() {
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
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(opts.EnvFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a := newApp(cfg, os.Stdout)
	code := run(context.Background(), opts, a)
	a.close()
	os.Exit(code)
}
