package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"

	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 500
	anthropicTemperature = 0.7
	messagesEndpoint     = "/v1/messages"
)

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout of zero means no timeout.
	Timeout time.Duration
}

// AnthropicEnhancer calls the Anthropic Messages API.
type AnthropicEnhancer struct {
	client *resty.Client
	model  string
}

var _ Enhancer = (*AnthropicEnhancer)(nil)

func NewAnthropicEnhancer(cfg AnthropicConfig) (*AnthropicEnhancer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &AnthropicEnhancer{client: client, model: cfg.Model}, nil
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type messageParam struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	System      string         `json:"system"`
	Messages    []messageParam `json:"messages"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *AnthropicEnhancer) buildRequest(input Input) messagesRequest {
	return messagesRequest{
		Model:       a.model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropicTemperature,
		System:      SystemPrompt,
		Messages: []messageParam{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: input.MediaType,
						Data:      input.ImageBase64(),
					},
				},
				{
					Type: "text",
					Text: UserPrompt(input.Reasoning, input.OriginalPrompt),
				},
			},
		}},
	}
}

func (a *AnthropicEnhancer) Enhance(ctx context.Context, input Input) Outcome {
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(a.buildRequest(input)).
		Post(messagesEndpoint)
	if err != nil {
		slog.Error("unable to reach anthropic", "error", err)
		return Failed(fmt.Errorf("anthropic request failed: %w", err))
	}

	if !res.IsSuccess() {
		var apiErr apiErrorResponse
		if jerr := json.Unmarshal(res.Body(), &apiErr); jerr == nil && apiErr.Error.Message != "" {
			return Failed(fmt.Errorf("anthropic returned %d (%s): %s", res.StatusCode(), apiErr.Error.Type, apiErr.Error.Message))
		}
		return Failed(fmt.Errorf("anthropic returned %d: %s", res.StatusCode(), res.String()))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return Failed(fmt.Errorf("error parsing anthropic response: %w", err))
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return Enhanced(text)
			}
			break
		}
	}
	return Failed(fmt.Errorf("anthropic response contained no text"))
}
