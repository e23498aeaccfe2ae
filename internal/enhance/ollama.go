package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	DefaultOllamaServerURL = "http://localhost:11434"
	DefaultOllamaModel     = "llava"
)

type OllamaConfig struct {
	ServerURL string
	Model     string
	Timeout   time.Duration
}

// OllamaEnhancer runs a local multimodal model through an Ollama server. It
// needs no API key.
type OllamaEnhancer struct {
	llm     *ollama.LLM
	timeout time.Duration
}

var _ Enhancer = (*OllamaEnhancer)(nil)

func NewOllamaEnhancer(cfg OllamaConfig) (*OllamaEnhancer, error) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultOllamaServerURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}

	llm, err := ollama.New(ollama.WithServerURL(cfg.ServerURL), ollama.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("error creating ollama client: %w", err)
	}

	return &OllamaEnhancer{llm: llm, timeout: cfg.Timeout}, nil
}

func (o *OllamaEnhancer) Enhance(ctx context.Context, input Input) Outcome {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt),
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(input.MediaType, input.Image),
				llms.TextPart(UserPrompt(input.Reasoning, input.OriginalPrompt)),
			},
		},
	}

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(anthropicMaxTokens),
		llms.WithTemperature(anthropicTemperature),
	)
	if err != nil {
		slog.Error("ollama generation failed", "error", err)
		return Failed(fmt.Errorf("ollama generation failed: %w", err))
	}

	if len(resp.Choices) == 0 {
		return Failed(fmt.Errorf("ollama response contained no choices"))
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return Failed(fmt.Errorf("ollama response contained no text"))
	}
	return Enhanced(text)
}
