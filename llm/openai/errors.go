package openai

import (
	"strings"

	"github.com/aschepis/backscratcher/chatwire/llm"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// ContextLengthCheck inspects a provider error object and reports whether it
// signals that the request exceeded the model's context window.
type ContextLengthCheck func(errJSON []byte) *llm.ContextLengthExceededError

// DefaultContextLengthChecks are tried in order by CheckContextLengthError.
var DefaultContextLengthChecks = []ContextLengthCheck{
	CheckOpenAIContextLengthError,
	CheckBedrockContextLengthError,
}

var openAIContextLengthCodes = []string{
	"context_length_exceeded",
	"string_above_max_length",
}

// CheckOpenAIContextLengthError matches OpenAI error objects whose code is
// context_length_exceeded or string_above_max_length.
func CheckOpenAIContextLengthError(errJSON []byte) *llm.ContextLengthExceededError {
	code := gjson.GetBytes(errJSON, "code")
	if code.Type != gjson.String {
		return nil
	}
	if !lo.Contains(openAIContextLengthCodes, code.Str) {
		return nil
	}

	message := "Unknown error"
	if m := gjson.GetBytes(errJSON, "message"); m.Type == gjson.String {
		message = m.Str
	}
	return &llm.ContextLengthExceededError{Message: message}
}

// CheckBedrockContextLengthError matches Bedrock-backed error objects whose
// external_model_message.message mentions "too long" in any casing.
func CheckBedrockContextLengthError(errJSON []byte) *llm.ContextLengthExceededError {
	m := gjson.GetBytes(errJSON, "external_model_message.message")
	if m.Type != gjson.String {
		return nil
	}
	if !strings.Contains(strings.ToLower(m.Str), "too long") {
		return nil
	}
	return &llm.ContextLengthExceededError{Message: m.Str}
}

// CheckContextLengthError runs checks in order and returns the first match.
// With no checks given, DefaultContextLengthChecks are used.
func CheckContextLengthError(errJSON []byte, checks ...ContextLengthCheck) *llm.ContextLengthExceededError {
	if len(checks) == 0 {
		checks = DefaultContextLengthChecks
	}
	for _, check := range checks {
		if err := check(errJSON); err != nil {
			return err
		}
	}
	return nil
}
