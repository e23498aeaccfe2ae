package enhance

import (
	"fmt"
	"time"
)

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
)

// RequiresAPIKey reports whether the provider is a hosted API that needs a key.
func (p Provider) RequiresAPIKey() bool {
	return p != ProviderOllama
}

type ProviderConfig struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

func New(cfg ProviderConfig) (Enhancer, error) {
	switch cfg.Provider {
	case ProviderAnthropic, "":
		enhancer, err := NewAnthropicEnhancer(AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return enhancer, nil
	case ProviderOpenAI:
		enhancer, err := NewOpenAIEnhancer(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return enhancer, nil
	case ProviderOllama:
		enhancer, err := NewOllamaEnhancer(OllamaConfig{
			ServerURL: cfg.BaseURL,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return enhancer, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
