package enhance

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrMissingAPIKey = errors.New("api key required")

// Enhancer turns an image and its creation transcript into a video prompt.
// Failures are reported through the Outcome, never by panicking or aborting.
type Enhancer interface {
	Enhance(ctx context.Context, input Input) Outcome
}

type Input struct {
	Image          []byte
	MediaType      string
	Reasoning      string
	OriginalPrompt string
}

func (in Input) ImageBase64() string {
	return base64.StdEncoding.EncodeToString(in.Image)
}

func NewInputFromFile(imagePath, reasoning, originalPrompt string) (Input, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return Input{}, fmt.Errorf("error reading image %s: %w", imagePath, err)
	}
	return Input{
		Image:          image,
		MediaType:      MediaTypeForPath(imagePath),
		Reasoning:      reasoning,
		OriginalPrompt: originalPrompt,
	}, nil
}

var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

const defaultMediaType = "image/png"

func MediaTypeForPath(path string) string {
	if mediaType, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mediaType
	}
	return defaultMediaType
}

// Outcome is either an enhanced prompt or the reason enhancement failed.
type Outcome struct {
	prompt string
	err    error
}

func Enhanced(prompt string) Outcome {
	return Outcome{prompt: prompt}
}

func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("enhancement failed")
	}
	return Outcome{err: err}
}

func (o Outcome) Ok() bool {
	return o.err == nil
}

func (o Outcome) Prompt() string {
	return o.prompt
}

func (o Outcome) Err() error {
	return o.err
}

// PromptOr returns the enhanced prompt, or fallback if enhancement failed.
func (o Outcome) PromptOr(fallback string) string {
	if o.err != nil {
		return fallback
	}
	return o.prompt
}
