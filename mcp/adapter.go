package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aschepis/backscratcher/chatwire/llm"
	wire "github.com/aschepis/backscratcher/chatwire/llm/openai"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
)

// ErrUnsupportedContent is returned for MCP content kinds the conversation
// model cannot carry (audio, resource links, embedded resources).
var ErrUnsupportedContent = errors.New("unsupported MCP content")

// FromMCPContent converts a single MCP content item into llm.Content,
// keeping its annotations.
func FromMCPContent(content mcp.Content) (llm.Content, error) {
	switch content.(type) {
	case mcp.TextContent, *mcp.TextContent, mcp.ImageContent, *mcp.ImageContent:
	default:
		return llm.Content{}, fmt.Errorf("%w: %T", ErrUnsupportedContent, content)
	}

	data, err := json.Marshal(content)
	if err != nil {
		return llm.Content{}, fmt.Errorf("failed to marshal MCP content: %w", err)
	}
	var out llm.Content
	if err := json.Unmarshal(data, &out); err != nil {
		return llm.Content{}, fmt.Errorf("failed to convert MCP content: %w", err)
	}
	return out, nil
}

// FromMCPContents converts a list of MCP content items. Unsupported items
// are skipped and reported through skipped.
func FromMCPContents(contents []mcp.Content) (result []llm.Content, skipped int) {
	result = make([]llm.Content, 0, len(contents))
	for _, c := range contents {
		converted, err := FromMCPContent(c)
		if err != nil {
			skipped++
			continue
		}
		result = append(result, converted)
	}
	return result, skipped
}

// ToolResponseFromResult turns the outcome of an MCP tools/call into the
// tool response item sent back to the model. A result flagged IsError
// becomes a failed response carrying the tool's text output.
func ToolResponseFromResult(id string, result *mcp.CallToolResult, callErr error) llm.MessageContent {
	if callErr != nil {
		return llm.NewToolResponseItem(id, nil, llm.NewToolError(llm.ExecutionError, "%v", callErr))
	}
	if result == nil {
		return llm.NewToolResponseItem(id, nil, llm.NewToolError(llm.Internal, "tool returned no result"))
	}

	if result.IsError {
		texts := lo.FilterMap(result.Content, func(c mcp.Content, _ int) (string, bool) {
			tc, ok := mcp.AsTextContent(c)
			if !ok {
				return "", false
			}
			return tc.Text, true
		})
		msg := "tool reported an error"
		if len(texts) > 0 {
			msg = texts[0]
		}
		return llm.NewToolResponseItem(id, nil, llm.NewToolError(llm.ExecutionError, "%s", msg))
	}

	contents, _ := FromMCPContents(result.Content)
	return llm.NewToolResponseItem(id, contents, nil)
}

// FromMCPTool converts an MCP tool definition into an llm.Tool whose name is
// safe for function calling. The adapter remembers the original name.
func (a *NameAdapter) FromMCPTool(tool mcp.Tool) (llm.Tool, error) {
	safe, err := a.Register(tool.Name)
	if err != nil {
		return llm.Tool{}, err
	}
	return llm.Tool{
		Name:        safe,
		Description: tool.Description,
		InputSchema: inputSchema(tool),
	}, nil
}

// FromMCPTools converts every tool in tools, failing on the first name collision.
func (a *NameAdapter) FromMCPTools(tools []mcp.Tool) ([]llm.Tool, error) {
	result := make([]llm.Tool, 0, len(tools))
	for _, tool := range tools {
		converted, err := a.FromMCPTool(tool)
		if err != nil {
			return nil, err
		}
		result = append(result, converted)
	}
	return result, nil
}

func inputSchema(tool mcp.Tool) map[string]any {
	if len(tool.RawInputSchema) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(tool.RawInputSchema, &raw); err == nil {
			return raw
		}
	}

	schema := map[string]any{"type": tool.InputSchema.Type}
	if tool.InputSchema.Properties != nil {
		schema["properties"] = tool.InputSchema.Properties
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	if len(tool.InputSchema.Defs) > 0 {
		schema["$defs"] = tool.InputSchema.Defs
	}
	return schema
}

// NameAdapter maps MCP tool names, which may contain dots or other characters
// function calling rejects, to sanitized names and back.
type NameAdapter struct {
	mu             sync.RWMutex
	safeToOriginal map[string]string
	originalToSafe map[string]string
}

// NewNameAdapter creates a new name adapter.
func NewNameAdapter() *NameAdapter {
	return &NameAdapter{
		safeToOriginal: make(map[string]string),
		originalToSafe: make(map[string]string),
	}
}

// ToSafeName converts an MCP tool name to a valid function name.
// Example: "gmail.messages.list" -> "gmail_messages_list"
func ToSafeName(original string) string {
	return wire.SanitizeFunctionName(original)
}

// Register records original and returns its safe name. Registering the same
// name twice is a no-op. Two originals that sanitize to the same name are
// reported as a duplicate tool name.
func (a *NameAdapter) Register(original string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if safe, ok := a.originalToSafe[original]; ok {
		return safe, nil
	}
	safe := ToSafeName(original)
	if other, ok := a.safeToOriginal[safe]; ok && other != original {
		return "", llm.NewDuplicateToolNameError(safe)
	}
	a.originalToSafe[original] = safe
	a.safeToOriginal[safe] = original
	return safe, nil
}

// ToOriginalName converts a safe name back to the original MCP tool name.
func (a *NameAdapter) ToOriginalName(safe string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	original, ok := a.safeToOriginal[safe]
	return original, ok
}

// ResolveCall maps the name in a decoded tool call back to the MCP tool name.
// Unknown names are returned unchanged with ok set to false.
func (a *NameAdapter) ResolveCall(call llm.ToolCall) (llm.ToolCall, bool) {
	original, ok := a.ToOriginalName(call.Name)
	if !ok {
		return call, false
	}
	call.Name = original
	return call, true
}
