package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o"

type OpenAIConfig struct {
	APIKey string
	// BaseURL selects any OpenAI-compatible endpoint; empty uses the default.
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIEnhancer calls an OpenAI-compatible chat completions endpoint.
type OpenAIEnhancer struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

var _ Enhancer = (*OpenAIEnhancer)(nil)

func NewOpenAIEnhancer(cfg OpenAIConfig) (*OpenAIEnhancer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEnhancer{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (o *OpenAIEnhancer) Enhance(ctx context.Context, input Input) Outcome {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", input.MediaType, input.ImageBase64())

	chatOpts := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
				openai.TextContentPart(UserPrompt(input.Reasoning, input.OriginalPrompt)),
			}),
		},
		Model:       o.model,
		MaxTokens:   openai.Int(anthropicMaxTokens),
		Temperature: openai.Float(anthropicTemperature),
	}

	res, err := o.client.Chat.Completions.New(ctx, chatOpts)
	if err != nil {
		slog.Error("openai error: chat completions failed", "error", err)
		return Failed(fmt.Errorf("openai generation failed: %w", err))
	}

	if len(res.Choices) == 0 {
		return Failed(fmt.Errorf("openai response contained no choices"))
	}
	text := strings.TrimSpace(res.Choices[0].Message.Content)
	if text == "" {
		return Failed(fmt.Errorf("openai response contained no text"))
	}
	return Enhanced(text)
}
