package openai

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/aschepis/backscratcher/chatwire/llm"
)

// Outcome is the provider-level result of an HTTP exchange.
// Exactly one of Body and Err is set.
type Outcome struct {
	Body json.RawMessage
	Err  *llm.Error
}

// DispatchStatus classifies a response by status code.
//
// The returned error reports transport-level trouble (a 200 whose body is not JSON).
// Provider-level failures are reported in Outcome.Err: 429 and 5xx produce a
// retryable server error, any other non-200 status produces a request failure
// carrying the original payload.
func DispatchStatus(status int, payload, body []byte) (Outcome, error) {
	switch {
	case status == http.StatusOK:
		if !json.Valid(body) {
			return Outcome{}, fmt.Errorf("failed to parse response body: invalid JSON (%d bytes)", len(body))
		}
		return Outcome{Body: json.RawMessage(body)}, nil
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return Outcome{Err: llm.NewServerError(status, body)}, nil
	default:
		return Outcome{Err: llm.NewRequestFailedError(status, payload, body)}, nil
	}
}

// HandleResponse reads and decompresses resp.Body, then classifies it with DispatchStatus.
// The body is always closed.
func HandleResponse(payload []byte, resp *http.Response) (Outcome, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	reader, err := decompressReader(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	body, err := io.ReadAll(reader)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read response body: %w", err)
	}

	return DispatchStatus(resp.StatusCode, payload, body)
}

// decompressReader wraps body in a decoder for encoding. Closing the result
// does not close body.
func decompressReader(body io.Reader, encoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	default:
		return io.NopCloser(body), nil
	}
}
