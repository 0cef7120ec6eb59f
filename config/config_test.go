package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aschepis/backscratcher/chatwire/llm"
	"github.com/rs/zerolog"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_ORG_ID",
		"DATABRICKS_HOST", "DATABRICKS_TOKEN", "DATABRICKS_MODEL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI.Model = %q, want gpt-4o", cfg.OpenAI.Model)
	}
	if cfg.Retry.MaxRetries == nil || *cfg.Retry.MaxRetries != 3 {
		t.Errorf("Retry.MaxRetries = %v, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.RequestTimeout != 600*time.Second {
		t.Errorf("RequestTimeout = %v, want 10m", cfg.RequestTimeout)
	}
}

func TestParse_MergesOntoDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
llm_providers: [databricks]
databricks:
  host: https://dbc.example.com
  token: dapi-123
  model: claude-endpoint
model:
  temperature: 0.2
  max_tokens: 512
retry:
  max_retries: 0
  initial_interval: 250ms
llm:
  - provider: databricks
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.LLMProviders) != 1 || cfg.LLMProviders[0] != llm.ProviderDatabricks {
		t.Errorf("LLMProviders = %v, want [databricks]", cfg.LLMProviders)
	}
	if cfg.OpenAI.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("OpenAI.BaseURL default lost: %q", cfg.OpenAI.BaseURL)
	}
	if cfg.Retry.MaxRetries == nil || *cfg.Retry.MaxRetries != 0 {
		t.Errorf("explicit max_retries 0 was not kept: %v", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.InitialInterval != 250*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 250ms", cfg.Retry.InitialInterval)
	}
	if cfg.Retry.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval default lost: %v", cfg.Retry.MaxInterval)
	}
	if cfg.Model.Temperature == nil || *cfg.Model.Temperature != 0.2 {
		t.Errorf("Model.Temperature = %v, want 0.2", cfg.Model.Temperature)
	}
	if cfg.Model.MaxTokens == nil || *cfg.Model.MaxTokens != 512 {
		t.Errorf("Model.MaxTokens = %v, want 512", cfg.Model.MaxTokens)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown provider", yaml: "llm_providers: [anthropic]"},
		{name: "preference without provider", yaml: "llm:\n  - model: gpt-4o"},
		{name: "temperature out of range", yaml: "model:\n  temperature: 3"},
		{name: "negative retries", yaml: "retry:\n  max_retries: -1"},
		{name: "bad yaml", yaml: "llm_providers: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() expected error, got nil")
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.OpenAI.APIKey = "sk-saved"
	cfg.Retry.InitialInterval = 2 * time.Second

	if err := SaveConfig(&cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.OpenAI.APIKey != "sk-saved" {
		t.Errorf("APIKey = %q, want sk-saved", loaded.OpenAI.APIKey)
	}
	if loaded.Retry.InitialInterval != 2*time.Second {
		t.Errorf("InitialInterval = %v, want 2s", loaded.Retry.InitialInterval)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("CHATWIRE_CONFIG_PATH", "/etc/chatwire.yaml")
	if got := GetConfigPath(); got != "/etc/chatwire.yaml" {
		t.Errorf("GetConfigPath() = %q", got)
	}
}

func TestLoadOpenAIConfig_EnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	cfg := Defaults()
	cfg.OpenAI.APIKey = "sk-file"

	apiKey, baseURL, model, _ := LoadOpenAIConfig(&cfg)
	if apiKey != "sk-file" || model != "gpt-4o" || baseURL != "https://api.openai.com/v1" {
		t.Errorf("file values not used: %q %q %q", apiKey, baseURL, model)
	}

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	apiKey, _, model, _ = LoadOpenAIConfig(&cfg)
	if apiKey != "sk-env" || model != "gpt-4o-mini" {
		t.Errorf("env overrides not applied: %q %q", apiKey, model)
	}
}

func TestLoadDatabricksConfig_EnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	cfg := Defaults()
	cfg.Databricks = DatabricksConfig{Host: "https://file", Token: "t", Model: "m"}

	t.Setenv("DATABRICKS_HOST", "https://env")
	host, token, endpoint := LoadDatabricksConfig(&cfg)
	if host != "https://env" || token != "t" || endpoint != "m" {
		t.Errorf("LoadDatabricksConfig() = %q %q %q", host, token, endpoint)
	}
}

func TestNewClient(t *testing.T) {
	cfg := Defaults()

	client, err := NewClient(&cfg, &llm.ClientKey{Provider: llm.ProviderOpenAI, APIKey: "sk", Model: "gpt-4o"}, zerolog.Nop())
	if err != nil || client == nil {
		t.Fatalf("NewClient(openai) = %v, %v", client, err)
	}

	client, err = NewClient(&cfg, &llm.ClientKey{Provider: llm.ProviderDatabricks, APIKey: "t", BaseURL: "https://dbc", Model: "ep"}, zerolog.Nop())
	if err != nil || client == nil {
		t.Fatalf("NewClient(databricks) = %v, %v", client, err)
	}

	if _, err := NewClient(&cfg, &llm.ClientKey{Provider: "ollama"}, zerolog.Nop()); err == nil {
		t.Error("NewClient(unknown) expected error")
	}
}

func TestNewClientFromPreferences(t *testing.T) {
	clearProviderEnv(t)
	cfg, err := Parse([]byte(`
llm_providers: [openai, databricks]
databricks: {host: "https://dbc", token: "t", model: "ep"}
model: {max_tokens: 100}
llm:
  - provider: openai
  - provider: databricks
    temperature: 0.5
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// OpenAI has no key, so the databricks preference wins.
	client, model, err := NewClientFromPreferences(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClientFromPreferences() error = %v", err)
	}
	if client == nil {
		t.Fatal("client is nil")
	}
	if model.ModelName != "ep" {
		t.Errorf("ModelName = %q, want ep", model.ModelName)
	}
	if model.Temperature == nil || *model.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want 0.5", model.Temperature)
	}
	if model.MaxTokens == nil || *model.MaxTokens != 100 {
		t.Errorf("MaxTokens = %v, want 100", model.MaxTokens)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := Defaults()
	zero := 0
	cfg.Retry.MaxRetries = &zero
	cfg.RequestTimeout = 5 * time.Second

	opts := cfg.ClientOptions(zerolog.Nop())
	if opts.Retry.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", opts.Retry.MaxRetries)
	}
	if opts.HTTPClient == nil || opts.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("HTTPClient timeout not applied")
	}
}
