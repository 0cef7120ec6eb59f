// Package llm provides the provider-neutral conversation model used by the wire codecs.
//
// Providers speak different JSON dialects, so the rest of the codebase works only
// with the types defined here and leaves the translation to provider packages
// such as llm/openai.
//
// # Core Concepts
//
//  1. Content: Content is the unit of tool output, either text or an image, with
//     optional Annotations (audience and priority). Values are immutable and the
//     With* methods return modified copies.
//
//  2. Messages: A Message has a role, a creation time and a list of MessageContent
//     items (text, image, tool request, tool response).
//
//  3. Tool outcomes: ToolRequest and ToolResponse carry either a value or an error.
//     A failed outcome is data, not a Go error return, so a single bad tool call never
//     aborts a whole decode.
//
//  4. Client Interface: Client.Complete sends a Request and returns the decoded
//     assistant message with its Usage.
//
//  5. Middleware: The Middleware interface adds cross-cutting concerns like logging
//     without modifying provider implementations.
//
//  6. Errors: The Error type classifies transport and protocol failures (retryable
//     server errors, failed requests, context length overflows, duplicate tools).
//
// Usage Example
//
//	client := llm.WrapWithMiddleware(baseClient, llm.NewLoggingMiddleware(log))
//
//	req := &llm.Request{
//	    Model:  llm.ModelConfig{ModelName: "gpt-4o"},
//	    System: "You are a helpful assistant.",
//	    Messages: []llm.Message{
//	        llm.NewUserMessage().WithText("Hello!"),
//	    },
//	}
//
//	resp, err := client.Complete(ctx, req)
//
// # Extension Points
//
// To add a new provider:
//  1. Implement the Client interface
//  2. Translate between provider wire JSON and llm package types
//  3. Translate provider failures into llm.Error values
package llm
