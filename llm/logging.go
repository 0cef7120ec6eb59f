package llm

import (
	"context"

	"github.com/rs/zerolog"
)

// NewLoggingMiddleware returns middleware that logs each request and its outcome.
func NewLoggingMiddleware(logger zerolog.Logger) Middleware {
	logger = logger.With().Str("component", "llm").Logger()
	return MiddlewareFunc{
		BeforeRequestFunc: func(ctx context.Context, req *Request) (*Request, error) {
			logger.Debug().
				Str("model", req.Model.ModelName).
				Int("messages", len(req.Messages)).
				Int("tools", len(req.Tools)).
				Msg("sending completion request")
			return req, nil
		},
		AfterResponseFunc: func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
			event := logger.Info().
				Str("model", resp.Model).
				Int("content_items", len(resp.Message.Content)).
				Int("tool_requests", len(resp.Message.ToolRequests()))
			if resp.Usage.InputTokens != nil {
				event = event.Int32("input_tokens", *resp.Usage.InputTokens)
			}
			if resp.Usage.OutputTokens != nil {
				event = event.Int32("output_tokens", *resp.Usage.OutputTokens)
			}
			if resp.Usage.TotalTokens != nil {
				event = event.Int32("total_tokens", *resp.Usage.TotalTokens)
			}
			event.Msg("completion received")
			return resp, nil
		},
		OnErrorFunc: func(ctx context.Context, req *Request, err error) error {
			logger.Error().
				Err(err).
				Str("model", req.Model.ModelName).
				Bool("retryable", IsRetryableError(err)).
				Bool("context_length_exceeded", IsContextLengthExceeded(err)).
				Msg("completion failed")
			return err
		},
	}
}
