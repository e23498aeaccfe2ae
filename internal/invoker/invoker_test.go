package invoker_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"wan-videogen/internal/invoker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "generate.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestCommandArgv(t *testing.T) {
	cmd := invoker.Command{
		Python:        "python3",
		Script:        "generate.py",
		Prompt:        "a whale breaching",
		Task:          "t2v-14B",
		Size:          "1280*720",
		CheckpointDir: "./Wan2.1-T2V-14B",
	}
	assert.Equal(t, []string{
		"python3", "generate.py",
		"--task", "t2v-14B",
		"--size", "1280*720",
		"--ckpt_dir", "./Wan2.1-T2V-14B",
		"--prompt", "a whale breaching",
	}, cmd.Argv())

	cmd.OutputDir = "out"
	cmd.ExtraArgs = []string{"--sample_steps", "30", "--offload_model", "True"}
	assert.Equal(t, []string{
		"python3", "generate.py",
		"--task", "t2v-14B",
		"--size", "1280*720",
		"--ckpt_dir", "./Wan2.1-T2V-14B",
		"--prompt", "a whale breaching",
		"--output_dir", "out",
		"--sample_steps", "30", "--offload_model", "True",
	}, cmd.Argv())
}

func TestRunner_PassesArgumentsAndStreams(t *testing.T) {
	script := writeScript(t, `for a in "$@"; do echo "$a"; done`)

	var stdout bytes.Buffer
	code, err := invoker.Runner{Stdout: &stdout}.Run(context.Background(), invoker.Command{
		Python:        "sh",
		Script:        script,
		Prompt:        "two words",
		Task:          "t2v-1.3B",
		Size:          "832*480",
		CheckpointDir: "/ckpt",
		ExtraArgs:     []string{"--base_seed", "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Equal(t, []string{
		"--task", "t2v-1.3B",
		"--size", "832*480",
		"--ckpt_dir", "/ckpt",
		"--prompt", "two words",
		"--base_seed", "7",
	}, lines)
}

func TestRunner_ReturnsChildExitCode(t *testing.T) {
	script := writeScript(t, "exit 7")

	code, err := invoker.Runner{}.Run(context.Background(), invoker.Command{Python: "sh", Script: script})
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestRunner_StartFailure(t *testing.T) {
	_, err := invoker.Runner{}.Run(context.Background(), invoker.Command{
		Python: filepath.Join(t.TempDir(), "no-such-python"),
		Script: "generate.py",
	})
	assert.Error(t, err)
}
