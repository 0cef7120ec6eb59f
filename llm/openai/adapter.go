package openai

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aschepis/backscratcher/chatwire/llm"
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

// ImageUploadPlaceholder replaces an image inside a tool result. The image itself
// follows in a separate user message because tool messages only carry text.
const ImageUploadPlaceholder = "This tool result included an image that is uploaded in the next message."

// MessagesToSpec converts canonical messages to OpenAI chat messages.
// A single canonical message can expand to several wire messages (tool results
// become role "tool" messages, images in tool results become extra user messages)
// or to none at all when it carries no content. A tool call whose arguments
// cannot be encoded is reported like a failed tool request.
func MessagesToSpec(messages []llm.Message, format llm.ImageFormat) []map[string]any {
	var out []map[string]any
	for _, msg := range messages {
		out = append(out, messageToSpec(msg, format)...)
	}
	return out
}

func messageToSpec(msg llm.Message, format llm.ImageFormat) []map[string]any {
	primary := map[string]any{"role": string(msg.Role)}
	var toolCalls []any
	var extras []map[string]any

	for _, item := range msg.Content {
		switch item.Type {
		case llm.MessageContentTypeText:
			if item.Text != nil && item.Text.Text != "" {
				primary["content"] = item.Text.Text
			}

		case llm.MessageContentTypeImage:
			if item.Image != nil {
				primary["content"] = []any{ConvertImage(*item.Image, format)}
			}

		case llm.MessageContentTypeToolRequest:
			req := item.ToolRequest
			if req == nil {
				continue
			}
			if req.Err != nil {
				extras = append(extras, map[string]any{
					"role":         openai.ChatMessageRoleTool,
					"content":      "Error: " + req.Err.Error(),
					"tool_call_id": req.ID,
				})
				continue
			}
			if req.Call == nil {
				continue
			}
			arguments, err := encodeArguments(req.Call.Arguments)
			if err != nil {
				extras = append(extras, map[string]any{
					"role":         openai.ChatMessageRoleTool,
					"content":      "Error: " + argumentsError(req.ID, err).Error(),
					"tool_call_id": req.ID,
				})
				continue
			}
			toolCalls = append(toolCalls, map[string]any{
				"id":   req.ID,
				"type": string(openai.ToolTypeFunction),
				"function": map[string]any{
					"name":      SanitizeFunctionName(req.Call.Name),
					"arguments": arguments,
				},
			})

		case llm.MessageContentTypeToolResponse:
			resp := item.ToolResponse
			if resp == nil {
				continue
			}
			if resp.Err != nil {
				extras = append(extras, map[string]any{
					"role":         openai.ChatMessageRoleTool,
					"content":      "The tool call returned the following error:\n" + resp.Err.Error(),
					"tool_call_id": resp.ID,
				})
				continue
			}
			extras = append(extras, toolResultToSpec(resp, format)...)
		}
	}

	if len(toolCalls) > 0 {
		primary["tool_calls"] = toolCalls
	}

	if _, hasContent := primary["content"]; hasContent || len(toolCalls) > 0 {
		extras = append([]map[string]any{primary}, extras...)
	}
	return extras
}

// toolResultToSpec emits the tool message for a successful result followed by
// one user message per image it contained.
func toolResultToSpec(resp *llm.ToolResponse, format llm.ImageFormat) []map[string]any {
	visible := lo.FilterMap(resp.Result, func(c llm.Content, _ int) (llm.Content, bool) {
		if !c.VisibleTo(llm.RoleAssistant) {
			return llm.Content{}, false
		}
		return c.Unannotated(), true
	})

	var images []map[string]any
	parts := lo.Map(visible, func(c llm.Content, _ int) string {
		switch c.Type {
		case llm.ContentTypeText:
			text, _ := c.AsText()
			return text
		case llm.ContentTypeImage:
			images = append(images, map[string]any{
				"role":    openai.ChatMessageRoleUser,
				"content": []any{ConvertImage(*c.Image, format)},
			})
			return ImageUploadPlaceholder
		default:
			// Unknown variants still take a slot in the joined text.
			return ""
		}
	})

	out := make([]map[string]any, 0, 1+len(images))
	out = append(out, map[string]any{
		"role":         openai.ChatMessageRoleTool,
		"content":      strings.Join(parts, " "),
		"tool_call_id": resp.ID,
	})
	return append(out, images...)
}

// ConvertImage renders an image content part in the requested format.
func ConvertImage(img llm.ImageContent, format llm.ImageFormat) map[string]any {
	if format == llm.ImageFormatAnthropic {
		return map[string]any{
			"type": "image",
			"source": map[string]any{
				"type":       "base64",
				"media_type": img.MimeType,
				"data":       img.Data,
			},
		}
	}
	return map[string]any{
		"type": string(openai.ChatMessagePartTypeImageURL),
		"image_url": map[string]any{
			"url": "data:" + img.MimeType + ";base64," + img.Data,
		},
	}
}

// ToolsToSpec converts tool definitions to OpenAI function tools, preserving order.
// Tool names must be unique; the first repeated name fails the whole conversion.
func ToolsToSpec(tools []llm.Tool) ([]map[string]any, error) {
	seen := make(map[string]struct{}, len(tools))
	result := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		if _, dup := seen[tool.Name]; dup {
			return nil, llm.NewDuplicateToolNameError(tool.Name)
		}
		seen[tool.Name] = struct{}{}

		result = append(result, map[string]any{
			"type": string(openai.ToolTypeFunction),
			"function": map[string]any{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.InputSchema,
			},
		})
	}
	return result, nil
}

// encodeArguments serializes tool call arguments compactly without HTML escaping.
func encodeArguments(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func argumentsError(id string, err error) *llm.ToolError {
	return llm.NewToolError(llm.InvalidParameters, "Could not encode tool use parameters for id %s: %v", id, err)
}

// CheckToolArguments reports the first successful tool request whose arguments
// cannot be encoded as JSON.
func CheckToolArguments(messages []llm.Message) error {
	for _, msg := range messages {
		for _, req := range msg.ToolRequests() {
			if req.Err != nil || req.Call == nil {
				continue
			}
			if _, err := encodeArguments(req.Call.Arguments); err != nil {
				return argumentsError(req.ID, err)
			}
		}
	}
	return nil
}
