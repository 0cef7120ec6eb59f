package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aschepis/backscratcher/chatwire/llm"
	chatmcp "github.com/aschepis/backscratcher/chatwire/mcp"
	"github.com/mark3labs/mcp-go/mcp"
)

// conversation is the JSON document the CLI reads and writes.
type conversation struct {
	Model       string        `json:"model,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int32        `json:"max_tokens,omitempty"`
	System      string        `json:"system"`
	Messages    []llm.Message `json:"messages"`
	Tools       []llm.Tool    `json:"tools,omitempty"`
}

func parseConversation(data []byte) (*conversation, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var conv conversation
	if err := dec.Decode(&conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}
	return &conv, nil
}

func (c *conversation) modelConfig() llm.ModelConfig {
	return llm.ModelConfig{
		ModelName:   c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

func (c *conversation) request() *llm.Request {
	return &llm.Request{
		Model:    c.modelConfig(),
		System:   c.System,
		Messages: c.Messages,
		Tools:    c.Tools,
	}
}

// addMCPTools appends the tools listed in an MCP tools/list result file,
// renamed to valid function names.
func (c *conversation) addMCPTools(path string, names *chatmcp.NameAdapter) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path) //#nosec 304 -- user-supplied tool list
	if err != nil {
		return fmt.Errorf("failed to read MCP tools: %w", err)
	}

	var list mcp.ListToolsResult
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to parse MCP tools: %w", err)
	}
	tools, err := names.FromMCPTools(list.Tools)
	if err != nil {
		return err
	}
	c.Tools = append(c.Tools, tools...)
	return nil
}

// addMCPResults appends one user message answering earlier tool calls with the
// MCP tools/call results named by ID=PATH pairs.
func (c *conversation) addMCPResults(pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	msg := llm.NewUserMessage()
	for _, pair := range pairs {
		id, path, ok := strings.Cut(pair, "=")
		if !ok || id == "" || path == "" {
			return fmt.Errorf("invalid MCP result %q, expected ID=PATH", pair)
		}
		data, err := os.ReadFile(path) //#nosec 304 -- user-supplied tool result
		if err != nil {
			return fmt.Errorf("failed to read MCP result for %s: %w", id, err)
		}
		var result mcp.CallToolResult
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("failed to parse MCP result for %s: %w", id, err)
		}
		msg = msg.WithContent(chatmcp.ToolResponseFromResult(id, &result, nil))
	}
	c.Messages = append(c.Messages, msg)
	return nil
}
