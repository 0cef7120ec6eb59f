package openai

import (
	"github.com/aschepis/backscratcher/chatwire/llm"
	openai "github.com/sashabaranov/go-openai"
)

// CreateRequestPayload builds a chat completions request body using data-URL images.
func CreateRequestPayload(cfg llm.ModelConfig, system string, messages []llm.Message, tools []llm.Tool) (map[string]any, error) {
	return BuildRequestPayload(cfg, system, messages, tools, llm.ImageFormatOpenAI)
}

// BuildRequestPayload builds a chat completions request body.
// The system prompt always comes first; tools, temperature and max_tokens are
// only included when present. Tool calls whose arguments cannot be encoded
// fail the build instead of being sent.
func BuildRequestPayload(cfg llm.ModelConfig, system string, messages []llm.Message, tools []llm.Tool, format llm.ImageFormat) (map[string]any, error) {
	if err := CheckToolArguments(messages); err != nil {
		return nil, err
	}

	wireMessages := []any{map[string]any{
		"role":    openai.ChatMessageRoleSystem,
		"content": system,
	}}
	for _, m := range MessagesToSpec(messages, format) {
		wireMessages = append(wireMessages, m)
	}

	payload := map[string]any{
		"model":    cfg.ModelName,
		"messages": wireMessages,
	}

	if len(tools) > 0 {
		toolSpecs, err := ToolsToSpec(tools)
		if err != nil {
			return nil, err
		}
		payload["tools"] = toolSpecs
	}
	if cfg.Temperature != nil {
		payload["temperature"] = *cfg.Temperature
	}
	if cfg.MaxTokens != nil {
		payload["max_tokens"] = *cfg.MaxTokens
	}
	return payload, nil
}
