package generator

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
)

// Request is one video generation. A negative BaseSeed asks for a random seed.
type Request struct {
	Prompt       string
	SrcRefImages string // comma-separated paths
	SaveFile     string
	Size         string
	FrameNum     int
	SampleSteps  int
	SampleShift  float64
	SampleSolver string
	GuideScale   float64
	BaseSeed     int64
	OffloadModel bool
}

const (
	DefaultSize         = "832*480"
	DefaultFrameNum     = 41
	DefaultSampleSteps  = 25
	DefaultSampleShift  = 16.0
	DefaultSampleSolver = "unipc"
	DefaultGuideScale   = 5.0
)

func DefaultRequest(prompt string) Request {
	return Request{
		Prompt:       prompt,
		Size:         DefaultSize,
		FrameNum:     DefaultFrameNum,
		SampleSteps:  DefaultSampleSteps,
		SampleShift:  DefaultSampleShift,
		SampleSolver: DefaultSampleSolver,
		GuideScale:   DefaultGuideScale,
		BaseSeed:     -1,
		OffloadModel: true,
	}
}

type SeedSource func() (int64, error)

// SystemSeed draws a uniformly random seed in [0, math.MaxInt64) from the OS.
func SystemSeed() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, fmt.Errorf("error drawing random seed: %w", err)
	}
	return n.Int64(), nil
}

func normalizeSeed(seed int64, source SeedSource) (int64, error) {
	if seed >= 0 {
		return seed, nil
	}
	return source()
}

func splitRefImages(paths string) [][]string {
	if paths == "" {
		return nil
	}
	return [][]string{strings.Split(paths, ",")}
}

const maxPromptInFileName = 50

func outputFileName(task, size, prompt string, now time.Time) string {
	formatted := strings.NewReplacer(" ", "_", "/", "_").Replace(prompt)
	if runes := []rune(formatted); len(runes) > maxPromptInFileName {
		formatted = string(runes[:maxPromptInFileName])
	}
	return fmt.Sprintf("%s_%s_%s_%s.mp4", task, size, formatted, now.Format("20060102_150405"))
}
