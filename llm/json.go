package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// DecodeJSONValue parses exactly one JSON value. Numbers are kept as
// json.Number so integers wider than a float64 mantissa re-encode unchanged.
func DecodeJSONValue(data []byte) (any, error) {
	dec := newNumberDecoder(data)
	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON value at offset %d", dec.InputOffset())
	}
	return value, nil
}

func newNumberDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

type toolErrorJSON struct {
	Kind    ToolErrorKind `json:"kind"`
	Message string        `json:"message"`
}

type toolCallJSON struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

type messageContentJSON struct {
	Type        MessageContentType `json:"type"`
	Text        *string            `json:"text,omitempty"`
	Data        *string            `json:"data,omitempty"`
	MimeType    *string            `json:"mimeType,omitempty"`
	Annotations *Annotations       `json:"annotations,omitempty"`
	ID          string             `json:"id,omitempty"`
	ToolCall    *toolCallJSON      `json:"toolCall,omitempty"`
	Result      []Content          `json:"result,omitempty"`
	Error       *toolErrorJSON     `json:"error,omitempty"`
}

type messageJSON struct {
	Role    MessageRole      `json:"role"`
	Created *time.Time       `json:"created,omitempty"`
	Content []MessageContent `json:"content"`
}

func encodeToolError(err error) *toolErrorJSON {
	if err == nil {
		return nil
	}
	toolErr := AsToolError(err)
	return &toolErrorJSON{Kind: toolErr.Kind, Message: toolErr.Message}
}

// MarshalJSON encodes a message item for conversation files.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	out := messageContentJSON{Type: c.Type}
	switch c.Type {
	case MessageContentTypeText:
		if c.Text == nil {
			return nil, fmt.Errorf("text item has no payload")
		}
		out.Text = &c.Text.Text
		out.Annotations = c.Text.Annotations
	case MessageContentTypeImage:
		if c.Image == nil {
			return nil, fmt.Errorf("image item has no payload")
		}
		out.Data = &c.Image.Data
		out.MimeType = &c.Image.MimeType
		out.Annotations = c.Image.Annotations
	case MessageContentTypeToolRequest:
		if c.ToolRequest == nil {
			return nil, fmt.Errorf("tool request item has no payload")
		}
		out.ID = c.ToolRequest.ID
		if c.ToolRequest.Call != nil {
			out.ToolCall = &toolCallJSON{Name: c.ToolRequest.Call.Name, Arguments: c.ToolRequest.Call.Arguments}
		}
		out.Error = encodeToolError(c.ToolRequest.Err)
	case MessageContentTypeToolResponse:
		if c.ToolResponse == nil {
			return nil, fmt.Errorf("tool response item has no payload")
		}
		out.ID = c.ToolResponse.ID
		out.Error = encodeToolError(c.ToolResponse.Err)
		if out.Error == nil {
			out.Result = c.ToolResponse.Result
			if out.Result == nil {
				out.Result = []Content{}
			}
		}
	default:
		return nil, fmt.Errorf("unknown message content type: %q", c.Type)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a message item from conversation files.
// Tool call arguments keep their numbers as json.Number.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var raw messageContentJSON
	if err := newNumberDecoder(data).Decode(&raw); err != nil {
		return err
	}

	var toolErr error
	if raw.Error != nil {
		toolErr = &ToolError{Kind: raw.Error.Kind, Message: raw.Error.Message}
	}

	switch raw.Type {
	case MessageContentTypeText:
		text := TextContent{Annotations: raw.Annotations}
		if raw.Text != nil {
			text.Text = *raw.Text
		}
		*c = MessageContent{Type: raw.Type, Text: &text}
	case MessageContentTypeImage:
		img := ImageContent{Annotations: raw.Annotations}
		if raw.Data != nil {
			img.Data = *raw.Data
		}
		if raw.MimeType != nil {
			img.MimeType = *raw.MimeType
		}
		*c = MessageContent{Type: raw.Type, Image: &img}
	case MessageContentTypeToolRequest:
		var call *ToolCall
		if raw.ToolCall != nil {
			call = &ToolCall{Name: raw.ToolCall.Name, Arguments: raw.ToolCall.Arguments}
		}
		if call == nil && toolErr == nil {
			return fmt.Errorf("tool request %q has neither toolCall nor error", raw.ID)
		}
		*c = NewToolRequestItem(raw.ID, call, toolErr)
	case MessageContentTypeToolResponse:
		*c = NewToolResponseItem(raw.ID, raw.Result, toolErr)
	default:
		return fmt.Errorf("unsupported message content type: %q", raw.Type)
	}
	return nil
}

// MarshalJSON encodes a message for conversation files.
func (m Message) MarshalJSON() ([]byte, error) {
	out := messageJSON{Role: m.Role, Content: m.Content}
	if !m.Created.IsZero() {
		created := m.Created
		out.Created = &created
	}
	if out.Content == nil {
		out.Content = []MessageContent{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a message from conversation files.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message{Role: raw.Role, Content: raw.Content}
	if raw.Created != nil {
		m.Created = *raw.Created
	}
	return nil
}
