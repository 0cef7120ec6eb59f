package llm

import (
	"time"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message represents a single message in a conversation.
// This is provider-neutral; wire encoders translate it per provider.
type Message struct {
	Role    MessageRole
	Created time.Time
	Content []MessageContent
}

// MessageContentType represents the type of a message content item.
type MessageContentType string

const (
	MessageContentTypeText         MessageContentType = "text"
	MessageContentTypeImage        MessageContentType = "image"
	MessageContentTypeToolRequest  MessageContentType = "toolRequest"
	MessageContentTypeToolResponse MessageContentType = "toolResponse"
)

// MessageContent is a single item within a message.
// Exactly one of the payload fields is set, matching Type.
type MessageContent struct {
	Type         MessageContentType
	Text         *TextContent  // For text items
	Image        *ImageContent // For image items
	ToolRequest  *ToolRequest  // For tool call requests
	ToolResponse *ToolResponse // For tool call results
}

// ToolRequest is a request from the assistant to invoke a tool.
// Exactly one of Call and Err is set.
type ToolRequest struct {
	ID   string
	Call *ToolCall
	Err  error
}

// ToolResponse carries the outcome of a tool invocation.
// A nil Err means Result holds the tool output.
type ToolResponse struct {
	ID     string
	Result []Content
	Err    error
}

// ToolCall names a tool and the JSON arguments to invoke it with.
type ToolCall struct {
	Name      string
	Arguments any
}

// Tool represents a tool definition that can be provided to an LLM.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"` // JSON Schema for the tool's parameters
}

// Usage represents token usage information from an LLM response.
// Fields are nil when the provider did not report them.
type Usage struct {
	InputTokens  *int32
	OutputTokens *int32
	TotalTokens  *int32
}

// ModelConfig holds the model name and optional generation parameters.
type ModelConfig struct {
	ModelName   string
	Temperature *float64
	MaxTokens   *int32
}

// ImageFormat selects how images are embedded in provider requests.
type ImageFormat string

const (
	// ImageFormatOpenAI embeds images as data URLs.
	ImageFormatOpenAI ImageFormat = "openai"
	// ImageFormatAnthropic embeds images as base64 source objects.
	ImageFormatAnthropic ImageFormat = "anthropic"
)

// Request represents a complete LLM API request.
type Request struct {
	Model    ModelConfig
	System   string
	Messages []Message
	Tools    []Tool
}

// Response represents a complete LLM API response.
type Response struct {
	Message Message
	Usage   Usage
	Model   string
}

// Clock supplies timestamps for decoded messages.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Int32 returns a pointer to v.
func Int32(v int32) *int32 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// NewUserMessage creates an empty user message stamped with the current time.
func NewUserMessage() Message {
	return Message{Role: RoleUser, Created: time.Now()}
}

// NewAssistantMessage creates an empty assistant message stamped with the current time.
func NewAssistantMessage() Message {
	return Message{Role: RoleAssistant, Created: time.Now()}
}

// WithContent returns a copy of m with item appended.
func (m Message) WithContent(item MessageContent) Message {
	content := make([]MessageContent, 0, len(m.Content)+1)
	content = append(content, m.Content...)
	m.Content = append(content, item)
	return m
}

// WithText appends a text item.
func (m Message) WithText(text string) Message {
	return m.WithContent(NewTextItem(text))
}

// WithImage appends an image item.
func (m Message) WithImage(data, mimeType string) Message {
	return m.WithContent(NewImageItem(data, mimeType))
}

// WithToolRequest appends a tool request. Pass a nil call and a non-nil err
// for a request that could not be interpreted.
func (m Message) WithToolRequest(id string, call *ToolCall, err error) Message {
	return m.WithContent(NewToolRequestItem(id, call, err))
}

// WithToolResponse appends a tool response.
func (m Message) WithToolResponse(id string, result []Content, err error) Message {
	return m.WithContent(NewToolResponseItem(id, result, err))
}

// NewTextItem creates a text message item.
func NewTextItem(text string) MessageContent {
	return MessageContent{Type: MessageContentTypeText, Text: &TextContent{Text: text}}
}

// NewImageItem creates an image message item.
func NewImageItem(data, mimeType string) MessageContent {
	return MessageContent{Type: MessageContentTypeImage, Image: &ImageContent{Data: data, MimeType: mimeType}}
}

// NewToolRequestItem creates a tool request item.
func NewToolRequestItem(id string, call *ToolCall, err error) MessageContent {
	return MessageContent{
		Type:        MessageContentTypeToolRequest,
		ToolRequest: &ToolRequest{ID: id, Call: call, Err: err},
	}
}

// NewToolResponseItem creates a tool response item.
func NewToolResponseItem(id string, result []Content, err error) MessageContent {
	return MessageContent{
		Type:         MessageContentTypeToolResponse,
		ToolResponse: &ToolResponse{ID: id, Result: result, Err: err},
	}
}

// AsText returns the text of a text item.
func (c MessageContent) AsText() (string, bool) {
	if c.Type == MessageContentTypeText && c.Text != nil {
		return c.Text.Text, true
	}
	return "", false
}

// ToolRequests returns the tool requests in the message, in order.
func (m Message) ToolRequests() []ToolRequest {
	var requests []ToolRequest
	for _, item := range m.Content {
		if item.Type == MessageContentTypeToolRequest && item.ToolRequest != nil {
			requests = append(requests, *item.ToolRequest)
		}
	}
	return requests
}
