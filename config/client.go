package config

import (
	"fmt"
	"net/http"

	"github.com/aschepis/backscratcher/chatwire/llm"
	llmopenai "github.com/aschepis/backscratcher/chatwire/llm/openai"
	"github.com/rs/zerolog"
)

// ClientOptions converts the request settings into ChatClient options.
func (c *Config) ClientOptions(logger zerolog.Logger) llmopenai.Options {
	retry := llmopenai.DefaultRetryConfig()
	if c.Retry.MaxRetries != nil {
		retry.MaxRetries = uint64(*c.Retry.MaxRetries) //nolint:gosec // validated non-negative
	}
	if c.Retry.InitialInterval > 0 {
		retry.InitialInterval = c.Retry.InitialInterval
	}
	if c.Retry.MaxInterval > 0 {
		retry.MaxInterval = c.Retry.MaxInterval
	}
	if c.Retry.MaxElapsedTime > 0 {
		retry.MaxElapsedTime = c.Retry.MaxElapsedTime
	}

	opts := llmopenai.Options{
		Retry:  retry,
		Logger: logger,
	}
	if c.RequestTimeout > 0 {
		opts.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	}
	return opts
}

// NewClient creates the client described by key, as resolved by the provider registry.
func NewClient(cfg *Config, key *llm.ClientKey, logger zerolog.Logger) (*llmopenai.ChatClient, error) {
	if cfg == nil {
		defaults := Defaults()
		cfg = &defaults
	}
	if key == nil {
		return nil, fmt.Errorf("client key is required")
	}

	opts := cfg.ClientOptions(logger)
	switch key.Provider {
	case llm.ProviderOpenAI:
		return llmopenai.NewOpenAIClient(key.APIKey, key.BaseURL, key.Model, key.Organization, opts)
	case llm.ProviderDatabricks:
		return llmopenai.NewDatabricksClient(key.BaseURL, key.APIKey, key.Model, opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", key.Provider)
	}
}

// NewClientFromPreferences resolves the configured preferences and returns a
// logging client together with the model settings to send with each request.
func NewClientFromPreferences(cfg *Config, logger zerolog.Logger) (llm.Client, llm.ModelConfig, error) {
	key, err := cfg.NewRegistry().Resolve(cfg.Preferences())
	if err != nil {
		return nil, llm.ModelConfig{}, fmt.Errorf("failed to resolve provider: %w", err)
	}

	client, err := NewClient(cfg, key, logger)
	if err != nil {
		return nil, llm.ModelConfig{}, fmt.Errorf("failed to create %s client: %w", key.Provider, err)
	}

	model := llm.ModelConfig{
		ModelName:   key.Model,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}
	if key.Temperature != nil {
		model.Temperature = key.Temperature
	}

	logger.Info().
		Str("provider", key.Provider).
		Str("model", key.Model).
		Msg("resolved LLM provider")

	return llm.WrapWithMiddleware(client, llm.NewLoggingMiddleware(logger)), model, nil
}
