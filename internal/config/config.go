package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL"`
	AnthropicModel   string        `env:"ANTHROPIC_MODEL"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL"`
	OllamaServerURL  string        `env:"OLLAMA_SERVER_URL"`
	OllamaModel      string        `env:"OLLAMA_MODEL"`

	PythonExecutable  string `env:"PYTHON_EXECUTABLE" envDefault:"python3"`
	PluginScript      string `env:"WAN_PLUGIN_SCRIPT" envDefault:"plugin/wan-pipeline/plugin.py"`
	GenerateScript    string `env:"WAN_GENERATE_SCRIPT" envDefault:"generate.py"`
	HistoryDB         string `env:"HISTORY_DB"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	OutputBucket      string `env:"OUTPUT_BUCKET"`
	OutputPrefix      string `env:"OUTPUT_PREFIX" envDefault:"videos"`
	PublishDir        string `env:"PUBLISH_DIR"`
}

// LoadConfig reads the environment, after loading envFile into it when given.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		log.Printf("loading env from file %s", envFile)
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.S3EndpointURL != "" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		log.Println("Warning: S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing.")
	}

	return cfg, nil
}

// LLMAPIKey returns the key configured for provider.
func (c Config) LLMAPIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "ollama":
		return ""
	default:
		return c.AnthropicAPIKey
	}
}

func (c Config) LLMBaseURL(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIBaseURL
	case "ollama":
		return c.OllamaServerURL
	default:
		return c.AnthropicBaseURL
	}
}

func (c Config) LLMModel(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIModel
	case "ollama":
		return c.OllamaModel
	default:
		return c.AnthropicModel
	}
}
