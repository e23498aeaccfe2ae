package invoker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Command describes one run of the standalone generation script.
type Command struct {
	Python        string
	Script        string
	Prompt        string
	Task          string
	Size          string
	CheckpointDir string
	OutputDir     string
	ExtraArgs     []string
}

// Argv returns the full command line, interpreter first.
func (c Command) Argv() []string {
	argv := []string{
		c.Python,
		c.Script,
		"--task", c.Task,
		"--size", c.Size,
		"--ckpt_dir", c.CheckpointDir,
		"--prompt", c.Prompt,
	}
	if c.OutputDir != "" {
		argv = append(argv, "--output_dir", c.OutputDir)
	}
	return append(argv, c.ExtraArgs...)
}

func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Runner starts child processes. Nil streams are inherited from this process.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command in the current working directory and returns its
// exit code. The error is non-nil only when the child could not be started.
func (r Runner) Run(ctx context.Context, c Command) (int, error) {
	argv := c.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if r.Stdin != nil {
		cmd.Stdin = r.Stdin
	}
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	slog.Info("running generation script", "script", c.Script, "task", c.Task, "size", c.Size)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("error starting %s: %w", argv[0], err)
}
