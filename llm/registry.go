package llm

import (
	"fmt"
	"os"
	"sync"

	"github.com/samber/lo"
)

const (
	ProviderOpenAI     = "openai"
	ProviderDatabricks = "databricks"
)

// LLMPreference represents a single provider/model preference.
type LLMPreference struct {
	Provider    string
	Model       string
	Temperature *float64
}

// ClientKey uniquely identifies an LLM client configuration.
type ClientKey struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string      // OpenAI base URL or Databricks workspace host
	Organization      string      // For OpenAI
	ImageFormat       ImageFormat // How images are embedded in requests
	UnescapeArguments bool        // Tool call arguments arrive double-escaped
	Temperature       *float64
}

// ProviderConfig holds the configuration needed for provider registry.
// This avoids import cycles by not importing the config package.
type ProviderConfig struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIOrg       string
	DatabricksHost  string
	DatabricksToken string
	DatabricksModel string
}

// ProviderRegistry manages LLM provider selection and configuration resolution.
// Client creation is handled by the caller to avoid import cycles.
type ProviderRegistry struct {
	enabledProviders []string // In configuration order
	mu               sync.RWMutex
	config           *ProviderConfig
}

// NewProviderRegistry creates a new ProviderRegistry with the given config and enabled providers.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	if providerConfig == nil {
		providerConfig = &ProviderConfig{}
	}
	return &ProviderRegistry{
		enabledProviders: lo.Uniq(enabledProviders),
		config:           providerConfig,
	}
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *ProviderRegistry) IsProviderEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Contains(r.enabledProviders, provider)
}

// IsProviderConfigured checks if a provider has the required credentials.
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isProviderConfiguredUnlocked(provider)
}

// Resolve returns a ClientKey for the first usable provider from prefs.
// With no preferences, the first enabled and configured provider is used with its default model.
func (r *ProviderRegistry) Resolve(prefs []LLMPreference) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(prefs) > 0 {
		var attempted []string
		for _, pref := range prefs {
			attempted = append(attempted, pref.Provider)
			if !lo.Contains(r.enabledProviders, pref.Provider) {
				continue
			}
			if !r.isProviderConfiguredUnlocked(pref.Provider) {
				continue
			}
			key, err := r.resolveProviderConfig(pref.Provider, pref.Model)
			if err != nil {
				continue
			}
			key.Temperature = pref.Temperature
			return key, nil
		}
		return nil, fmt.Errorf("no available provider from preferences %v (enabled: %v)", attempted, r.enabledProviders)
	}

	if len(r.enabledProviders) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}

	provider, ok := lo.Find(r.enabledProviders, r.isProviderConfiguredUnlocked)
	if !ok {
		return nil, fmt.Errorf("none of the enabled providers %v is configured", r.enabledProviders)
	}

	key, err := r.resolveProviderConfig(provider, "")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config for provider %s: %w", provider, err)
	}
	return key, nil
}

// isProviderConfiguredUnlocked must be called with r.mu held.
func (r *ProviderRegistry) isProviderConfiguredUnlocked(provider string) bool {
	switch provider {
	case ProviderOpenAI:
		return firstNonEmpty(r.config.OpenAIAPIKey, os.Getenv("OPENAI_API_KEY")) != ""
	case ProviderDatabricks:
		host := firstNonEmpty(r.config.DatabricksHost, os.Getenv("DATABRICKS_HOST"))
		token := firstNonEmpty(r.config.DatabricksToken, os.Getenv("DATABRICKS_TOKEN"))
		return host != "" && token != ""
	default:
		return false
	}
}

// resolveProviderConfig resolves provider-specific configuration and returns a ClientKey.
func (r *ProviderRegistry) resolveProviderConfig(provider, modelOverride string) (*ClientKey, error) {
	key := &ClientKey{
		Provider: provider,
		Model:    modelOverride,
	}

	switch provider {
	case ProviderOpenAI:
		key.APIKey = firstNonEmpty(r.config.OpenAIAPIKey, os.Getenv("OPENAI_API_KEY"))
		if key.APIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		key.BaseURL = firstNonEmpty(r.config.OpenAIBaseURL, os.Getenv("OPENAI_BASE_URL"))
		key.Organization = firstNonEmpty(r.config.OpenAIOrg, os.Getenv("OPENAI_ORG_ID"))
		if key.Model == "" {
			key.Model = firstNonEmpty(r.config.OpenAIModel, os.Getenv("OPENAI_MODEL"), "gpt-4o")
		}
		key.ImageFormat = ImageFormatOpenAI

	case ProviderDatabricks:
		key.BaseURL = firstNonEmpty(r.config.DatabricksHost, os.Getenv("DATABRICKS_HOST"))
		key.APIKey = firstNonEmpty(r.config.DatabricksToken, os.Getenv("DATABRICKS_TOKEN"))
		if key.BaseURL == "" || key.APIKey == "" {
			return nil, fmt.Errorf("databricks host and token must both be configured")
		}
		if key.Model == "" {
			key.Model = firstNonEmpty(r.config.DatabricksModel, os.Getenv("DATABRICKS_MODEL"))
		}
		if key.Model == "" {
			return nil, fmt.Errorf("databricks serving endpoint not specified and no default configured")
		}
		key.ImageFormat = ImageFormatAnthropic
		key.UnescapeArguments = true

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return key, nil
}

func firstNonEmpty(values ...string) string {
	v, _ := lo.Find(values, func(s string) bool { return s != "" })
	return v
}
