package config

import (
	"os"
)

// LoadOpenAIConfig loads OpenAI configuration from the config file settings.
// It returns the API key, base URL, model, and organization to use for creating an OpenAI client.
func LoadOpenAIConfig(cfg *Config) (apiKey, baseURL, model, organization string) {
	if cfg == nil {
		// Return defaults from environment
		apiKey = getOpenAIAPIKeyFromEnv()
		baseURL = getOpenAIBaseURLFromEnv()
		model = getOpenAIModelFromEnv()
		organization = getOpenAIOrgFromEnv()
		return
	}

	apiKey = cfg.OpenAI.APIKey
	baseURL = cfg.OpenAI.BaseURL
	model = cfg.OpenAI.Model
	organization = cfg.OpenAI.Organization

	// Apply environment variable overrides
	if envAPIKey := getOpenAIAPIKeyFromEnv(); envAPIKey != "" {
		apiKey = envAPIKey
	}
	if envBaseURL := getOpenAIBaseURLFromEnv(); envBaseURL != "" {
		baseURL = envBaseURL
	}
	if envModel := getOpenAIModelFromEnv(); envModel != "" {
		model = envModel
	}
	if envOrg := getOpenAIOrgFromEnv(); envOrg != "" {
		organization = envOrg
	}

	return apiKey, baseURL, model, organization
}

func getOpenAIAPIKeyFromEnv() string {
	return os.Getenv("OPENAI_API_KEY")
}

func getOpenAIBaseURLFromEnv() string {
	return os.Getenv("OPENAI_BASE_URL")
}

func getOpenAIModelFromEnv() string {
	return os.Getenv("OPENAI_MODEL")
}

func getOpenAIOrgFromEnv() string {
	return os.Getenv("OPENAI_ORG_ID")
}
