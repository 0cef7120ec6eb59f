package openai

import (
	"encoding/json"

	"github.com/aschepis/backscratcher/chatwire/llm"
	"github.com/tidwall/gjson"
)

// UnknownModel is reported when a response does not name its model.
const UnknownModel = "Unknown"

// ResponseToMessage decodes choices[0].message of a chat completion response into
// an assistant message stamped by clock.
//
// Tool calls that cannot be used are kept as failed tool requests rather than
// failing the decode: an invalid function name yields a ToolNotFound error and
// unparsable arguments yield an InvalidParameters error.
func ResponseToMessage(body []byte, clock llm.Clock) (llm.Message, error) {
	if !gjson.ValidBytes(body) {
		return llm.Message{}, &llm.Error{
			Type:    llm.ErrorTypeInvalidResponse,
			Message: "response body is not valid JSON",
			Body:    body,
		}
	}

	original := gjson.GetBytes(body, "choices.0.message")
	var content []llm.MessageContent

	if text := original.Get("content"); text.Type == gjson.String {
		content = append(content, llm.NewTextItem(text.Str))
	}

	if toolCalls := original.Get("tool_calls"); toolCalls.IsArray() {
		for _, call := range toolCalls.Array() {
			content = append(content, decodeToolCall(call))
		}
	}

	if clock == nil {
		clock = llm.SystemClock
	}
	return llm.Message{
		Role:    llm.RoleAssistant,
		Created: clock.Now(),
		Content: content,
	}, nil
}

func decodeToolCall(call gjson.Result) llm.MessageContent {
	id := stringField(call, "id")
	name := stringField(call, "function.name")
	arguments := stringField(call, "function.arguments")

	if !IsValidFunctionName(name) {
		err := llm.NewToolError(llm.ToolNotFound,
			"The provided function name '%s' had invalid characters, it must match this regex %s",
			name, FunctionNamePattern)
		return llm.NewToolRequestItem(id, nil, err)
	}

	params, err := llm.DecodeJSONValue([]byte(arguments))
	if err != nil {
		toolErr := llm.NewToolError(llm.InvalidParameters,
			"Could not interpret tool use parameters for id %s: %v", id, err)
		return llm.NewToolRequestItem(id, nil, toolErr)
	}

	return llm.NewToolRequestItem(id, &llm.ToolCall{Name: name, Arguments: params}, nil)
}

// GetUsage reads token counts from the usage object of a response.
// A response without a usage object is an error; missing counts are left nil and
// the total is derived from input and output when not reported.
func GetUsage(body []byte) (llm.Usage, error) {
	usage := gjson.GetBytes(body, "usage")
	if !usage.Exists() {
		return llm.Usage{}, llm.NewMissingUsageDataError()
	}

	result := llm.Usage{
		InputTokens:  int32Field(usage, "prompt_tokens"),
		OutputTokens: int32Field(usage, "completion_tokens"),
		TotalTokens:  int32Field(usage, "total_tokens"),
	}
	if result.TotalTokens == nil && result.InputTokens != nil && result.OutputTokens != nil {
		result.TotalTokens = llm.Int32(*result.InputTokens + *result.OutputTokens)
	}
	return result, nil
}

// GetModel returns the model named by a response, or UnknownModel.
func GetModel(body []byte) string {
	if model := gjson.GetBytes(body, "model"); model.Type == gjson.String {
		return model.Str
	}
	return UnknownModel
}

// stringField returns the string at path, or "" when absent or not a string.
func stringField(r gjson.Result, path string) string {
	if v := r.Get(path); v.Type == gjson.String {
		return v.Str
	}
	return ""
}

func int32Field(r gjson.Result, path string) *int32 {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return nil
	}
	return llm.Int32(int32(v.Int()))
}

// ErrorObject returns the top-level "error" object of a response body, if any.
func ErrorObject(body []byte) (json.RawMessage, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	v := gjson.GetBytes(body, "error")
	if !v.IsObject() {
		return nil, false
	}
	return json.RawMessage(v.Raw), true
}

// describeError renders a provider error object for logs and messages.
func describeError(errJSON []byte) string {
	if msg := gjson.GetBytes(errJSON, "message"); msg.Type == gjson.String {
		return msg.Str
	}
	return string(errJSON)
}
