package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/aschepis/backscratcher/chatwire/llm"
	"gopkg.in/yaml.v3"
)

// OpenAIConfig represents configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`      // OpenAI API key
	BaseURL      string `yaml:"base_url,omitempty"`     // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty"`        // Default model name
	Organization string `yaml:"organization,omitempty"` // Organization ID
}

// DatabricksConfig represents configuration for Databricks model serving.
type DatabricksConfig struct {
	Host  string `yaml:"host,omitempty"`  // Workspace URL, e.g. https://dbc-123.cloud.databricks.com
	Token string `yaml:"token,omitempty"` // Personal access token
	Model string `yaml:"model,omitempty"` // Default serving endpoint name
}

// ModelConfig holds sampling settings applied to every request.
type ModelConfig struct {
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int32   `yaml:"max_tokens,omitempty"`
}

// RetryConfig controls retries of rate-limited and 5xx responses.
type RetryConfig struct {
	MaxRetries      *int          `yaml:"max_retries,omitempty"`
	InitialInterval time.Duration `yaml:"initial_interval,omitempty"`
	MaxInterval     time.Duration `yaml:"max_interval,omitempty"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time,omitempty"`
}

// LogConfig selects where logs go.
type LogConfig struct {
	File   string `yaml:"file,omitempty"`   // Log file path (empty = stderr)
	Pretty bool   `yaml:"pretty,omitempty"` // Human-readable console output
}

// LLMPreference represents a single provider/model preference.
// Preferences are tried in order and the first usable provider wins.
type LLMPreference struct {
	Provider    string   `yaml:"provider" json:"provider"`                           // Required: "openai" or "databricks"
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`             // Optional: uses provider default if omitted
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"` // Optional temperature override
}

// Config is the chatwire configuration file.
type Config struct {
	// LLM provider configurations
	LLMProviders []string         `yaml:"llm_providers,omitempty"`
	OpenAI       OpenAIConfig     `yaml:"openai,omitempty"`
	Databricks   DatabricksConfig `yaml:"databricks,omitempty"`
	LLM          []LLMPreference  `yaml:"llm,omitempty"` // Ordered list of provider/model preferences

	// Request settings
	Model          ModelConfig   `yaml:"model,omitempty"`
	SystemPrompt   string        `yaml:"system_prompt,omitempty"`
	Retry          RetryConfig   `yaml:"retry,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`
}

// Defaults returns the configuration used when no file overrides it.
func Defaults() Config {
	maxRetries := 3
	return Config{
		LLMProviders: []string{llm.ProviderOpenAI, llm.ProviderDatabricks},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
		},
		Retry: RetryConfig{
			MaxRetries:      &maxRetries,
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			MaxElapsedTime:  2 * time.Minute,
		},
		RequestTimeout: 600 * time.Second,
		SystemPrompt:   "You are a helpful assistant.",
	}
}

// GetConfigPath returns the default config file path.
// Can be overridden via CHATWIRE_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("CHATWIRE_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.chatwire/config.yaml"
	}
	return filepath.Join(homeDir, ".chatwire", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// LoadConfig loads the configuration file at path and merges it onto Defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	defaults := Defaults()

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err != nil {
		return &defaults, nil
	}

	configYAML, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}

	cfg, err := Parse(configYAML)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and merges it onto Defaults.
func Parse(configYAML []byte) (*Config, error) {
	defaults := Defaults()

	var fileConfig Config
	if err := yaml.Unmarshal(configYAML, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Merge file config onto defaults. Pointers are compared without
	// dereferencing so an explicit 0 in the file still overrides.
	if err := mergo.Merge(&defaults, fileConfig, mergo.WithOverride, mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	for _, p := range c.LLMProviders {
		if p != llm.ProviderOpenAI && p != llm.ProviderDatabricks {
			return fmt.Errorf("unknown provider %q in llm_providers", p)
		}
	}
	for i, pref := range c.LLM {
		if pref.Provider == "" {
			return fmt.Errorf("llm preference %d has no provider", i)
		}
	}
	if t := c.Model.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("temperature %v is outside [0, 2]", *t)
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	// Ensure directory exists
	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write file
	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Preferences converts the configured preferences for the provider registry.
func (c *Config) Preferences() []llm.LLMPreference {
	prefs := make([]llm.LLMPreference, 0, len(c.LLM))
	for _, p := range c.LLM {
		prefs = append(prefs, llm.LLMPreference{
			Provider:    p.Provider,
			Model:       p.Model,
			Temperature: p.Temperature,
		})
	}
	return prefs
}

// ProviderConfig returns provider credentials with environment overrides applied.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	apiKey, baseURL, model, org := LoadOpenAIConfig(c)
	host, token, endpoint := LoadDatabricksConfig(c)
	return &llm.ProviderConfig{
		OpenAIAPIKey:    apiKey,
		OpenAIBaseURL:   baseURL,
		OpenAIModel:     model,
		OpenAIOrg:       org,
		DatabricksHost:  host,
		DatabricksToken: token,
		DatabricksModel: endpoint,
	}
}

// NewRegistry builds a provider registry from the configuration.
func (c *Config) NewRegistry() *llm.ProviderRegistry {
	return llm.NewProviderRegistry(c.ProviderConfig(), c.LLMProviders)
}
