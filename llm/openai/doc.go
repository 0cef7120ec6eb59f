// Package openai translates between the llm conversation model and the
// OpenAI chat completions wire format.
//
// The codec functions work on raw JSON and plain maps so they can serve any
// OpenAI-compatible server, including Databricks model serving endpoints:
//
//   - MessagesToSpec and ToolsToSpec build the "messages" and "tools" arrays.
//   - CreateRequestPayload assembles a complete request body.
//   - ResponseToMessage, GetUsage and GetModel decode a response body.
//   - HandleResponse and DispatchStatus classify HTTP responses.
//   - CheckContextLengthError recognizes context window overflows.
//
// ChatClient ties these together into an llm.Client with retries.
package openai
