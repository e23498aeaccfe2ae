package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wan-videogen/internal/config"
	"wan-videogen/internal/database"
	"wan-videogen/internal/generator"
	"wan-videogen/internal/pipeline"
	"wan-videogen/internal/storage"
	"wan-videogen/internal/wan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	generated   []pipeline.GenerateRequest
	saved       []pipeline.SaveRequest
	generateErr error
	writeFiles  bool
}

func (p *fakePipeline) Prepare(ctx context.Context, req pipeline.PrepareRequest) (pipeline.Prepared, error) {
	return pipeline.Prepared{ID: "prep"}, nil
}

func (p *fakePipeline) Generate(ctx context.Context, req pipeline.GenerateRequest) (pipeline.Frames, error) {
	if p.generateErr != nil {
		return pipeline.Frames{}, p.generateErr
	}
	p.generated = append(p.generated, req)
	return pipeline.Frames{ID: "frames", NumFrames: req.FrameNum}, nil
}

func (p *fakePipeline) SaveVideo(ctx context.Context, req pipeline.SaveRequest) error {
	p.saved = append(p.saved, req)
	if p.writeFiles {
		return os.WriteFile(req.SaveFile, []byte("mp4"), 0644)
	}
	return nil
}

func (p *fakePipeline) Release() {}

func newTestApp(t *testing.T, p *fakePipeline, loads *int) (*app, *bytes.Buffer) {
	t.Helper()

	tables, err := wan.DefaultTables()
	require.NoError(t, err)

	loaders := map[wan.Family]pipeline.Loader{
		wan.FamilyVace: func(cfg pipeline.LoadConfig) (pipeline.Pipeline, error) {
			*loads++
			return p, nil
		},
	}
	cache := generator.NewPipelineCache(generator.NewBuilder(tables, loaders))
	t.Cleanup(cache.Close)

	var stdout bytes.Buffer
	return &app{cache: cache, stdout: &stdout, progress: io.Discard}, &stdout
}

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "vace-1.3B", opts.Task)
	assert.Equal(t, 0, opts.DeviceID)
	assert.Equal(t, "832*480", opts.Size)
	assert.Equal(t, 41, opts.FrameNum)
	assert.Equal(t, 25, opts.SampleSteps)
	assert.Equal(t, 16.0, opts.SampleShift)
	assert.Equal(t, "unipc", opts.SampleSolver)
	assert.Equal(t, 5.0, opts.GuideScale)
	assert.Equal(t, int64(-1), opts.BaseSeed)
	assert.True(t, bool(opts.OffloadModel))
}

func TestParseOptions_Overrides(t *testing.T) {
	opts, err := parseOptions([]string{
		"--ckpt_dir", "/ckpt",
		"--prompt", "a cat",
		"--task", "vace-14B",
		"--device_id", "1",
		"--size", "1280*720",
		"--base_seed", "9223372036854775807",
		"--offload_model", "False",
		"--sample_guide_scale", "7.5",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "vace-14B", opts.Task)
	assert.Equal(t, 1, opts.DeviceID)
	assert.Equal(t, int64(9223372036854775807), opts.BaseSeed)
	assert.False(t, bool(opts.OffloadModel))
	assert.Equal(t, 7.5, opts.GuideScale)

	req := opts.request("a dog")
	assert.Equal(t, "a dog", req.Prompt)
	assert.False(t, req.OffloadModel)
	assert.Equal(t, "1280*720", req.Size)
}

func TestParseOptions_RequiredFlags(t *testing.T) {
	_, err := parseOptions([]string{"--prompt", "a cat"}, io.Discard)
	assert.Error(t, err)

	_, err = parseOptions([]string{"--ckpt_dir", "/ckpt"}, io.Discard)
	assert.Error(t, err)

	_, err = parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a", "--prompt_file", "p.txt"}, io.Discard)
	assert.Error(t, err)

	_, err = parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a", "--offload_model", "sometimes"}, io.Discard)
	assert.Error(t, err)
}

func TestRun_SinglePrompt(t *testing.T) {
	p := &fakePipeline{}
	loads := 0
	a, stdout := newTestApp(t, p, &loads)

	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--save_file", "out.mp4", "--base_seed", "42"}, io.Discard)
	require.NoError(t, err)

	require.NoError(t, run(context.Background(), opts, a))
	assert.Equal(t, "Output: out.mp4\n", stdout.String())
	assert.Equal(t, 1, loads)

	require.Len(t, p.generated, 1)
	assert.Equal(t, int64(42), p.generated[0].Seed)
	assert.Equal(t, wan.Resolution{Width: 832, Height: 480}, p.generated[0].Size)
	require.Len(t, p.saved, 1)
	assert.Equal(t, 16, p.saved[0].FPS)

	// The same app reuses the loaded pipeline.
	require.NoError(t, run(context.Background(), opts, a))
	assert.Equal(t, 1, loads)
}

func TestRun_UnsupportedTask(t *testing.T) {
	p := &fakePipeline{}
	loads := 0
	a, stdout := newTestApp(t, p, &loads)

	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--task", "t2v-14B"}, io.Discard)
	require.NoError(t, err)

	err = run(context.Background(), opts, a)
	assert.ErrorIs(t, err, generator.ErrTaskNotImplemented)
	assert.Equal(t, 0, loads)
	assert.Empty(t, stdout.String())
}

func TestParseOptions_UnknownSize(t *testing.T) {
	_, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--size", "640*640"}, io.Discard)
	assert.ErrorIs(t, err, wan.ErrUnknownSize)
}

func TestParseOptions_WarnsForUnlistedSize(t *testing.T) {
	var output bytes.Buffer
	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--size", "1280*720"}, &output)
	require.NoError(t, err)
	assert.Equal(t, "1280*720", opts.Size)
	assert.Contains(t, output.String(), "not listed for task vace-1.3B")

	output.Reset()
	_, err = parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--task", "vace-14B", "--size", "1280*720"}, &output)
	require.NoError(t, err)
	assert.Empty(t, output.String())
}

func TestRun_UnknownSize(t *testing.T) {
	p := &fakePipeline{}
	loads := 0
	a, _ := newTestApp(t, p, &loads)

	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat"}, io.Discard)
	require.NoError(t, err)
	opts.Size = "640*640"

	err = run(context.Background(), opts, a)
	assert.ErrorIs(t, err, wan.ErrUnknownSize)
	assert.Empty(t, p.generated)
}

func TestRun_PromptFile(t *testing.T) {
	p := &fakePipeline{}
	loads := 0
	a, stdout := newTestApp(t, p, &loads)

	promptFile := filepath.Join(t.TempDir(), "prompts.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("a cat\n\n  a dog  \na bird\n"), 0644))

	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt_file", promptFile, "--save_file", "ignored.mp4"}, io.Discard)
	require.NoError(t, err)

	require.NoError(t, run(context.Background(), opts, a))
	assert.Equal(t, 1, loads)

	require.Len(t, p.generated, 3)
	assert.Equal(t, "a dog", p.generated[1].Prompt)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, "Output: vace-1.3B_832*480_"), line)
		assert.NotEqual(t, "ignored.mp4", p.saved[i].SaveFile)
	}
}

func TestRun_EmptyPromptFile(t *testing.T) {
	p := &fakePipeline{}
	loads := 0
	a, _ := newTestApp(t, p, &loads)

	promptFile := filepath.Join(t.TempDir(), "prompts.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("\n  \n"), 0644))

	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt_file", promptFile}, io.Discard)
	require.NoError(t, err)
	assert.Error(t, run(context.Background(), opts, a))
}

func TestRun_RecordsHistoryAndPublishes(t *testing.T) {
	p := &fakePipeline{writeFiles: true}
	loads := 0
	a, stdout := newTestApp(t, p, &loads)

	db, err := database.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer database.Close(db) //nolint:errcheck

	publishDir := t.TempDir()
	store, err := storage.NewLocalObjectStore(publishDir)
	require.NoError(t, err)

	a.history = db
	a.store = store
	a.outputPrefix = "videos"

	saveFile := filepath.Join(t.TempDir(), "clip.mp4")
	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--save_file", saveFile, "--base_seed", "7"}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), opts, a))

	published := filepath.Join(publishDir, "videos", "clip.mp4")
	assert.FileExists(t, published)
	assert.Contains(t, stdout.String(), "Output: "+saveFile+"\n")
	assert.Contains(t, stdout.String(), "Published: file://")

	gens, err := database.ListGenerations(context.Background(), db, "vace-1.3B", 0)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, int64(7), gens[0].Seed)
	assert.Equal(t, database.RunSucceeded, gens[0].Status)
	assert.Equal(t, "file://"+filepath.ToSlash(published), gens[0].ObjectURI.String)
}

func TestRun_RecordsFailedGeneration(t *testing.T) {
	p := &fakePipeline{generateErr: errors.New("out of memory")}
	loads := 0
	a, _ := newTestApp(t, p, &loads)

	db, err := database.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer database.Close(db) //nolint:errcheck
	a.history = db

	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat"}, io.Discard)
	require.NoError(t, err)
	assert.Error(t, run(context.Background(), opts, a))

	gens, err := database.ListGenerations(context.Background(), db, "", 0)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, database.RunFailed, gens[0].Status)
	assert.Contains(t, gens[0].Error, "out of memory")
}

func TestNewApp_UnusableHistoryAndPublishDirStillGenerate(t *testing.T) {
	p := &fakePipeline{writeFiles: true}
	loads := 0
	base, _ := newTestApp(t, p, &loads)

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	a := newApp(context.Background(), config.Config{
		HistoryDB:  filepath.Join(blocker, "history.db"),
		PublishDir: filepath.Join(blocker, "published"),
	}, base.cache)
	assert.Nil(t, a.history)
	assert.Nil(t, a.store)

	var stdout bytes.Buffer
	a.stdout = &stdout

	saveFile := filepath.Join(dir, "clip.mp4")
	opts, err := parseOptions([]string{"--ckpt_dir", "/ckpt", "--prompt", "a cat", "--save_file", saveFile}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), opts, a))
	assert.Equal(t, "Output: "+saveFile+"\n", stdout.String())

	a.close()
	assert.Equal(t, 0, base.cache.Len())
}
