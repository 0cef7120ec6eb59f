package llm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubClient struct {
	resp *Response
	err  error
	seen *Request
}

func (s *stubClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	s.seen = req
	return s.resp, s.err
}

func TestWrapWithMiddleware_NoMiddlewareReturnsClient(t *testing.T) {
	base := &stubClient{}
	if got := WrapWithMiddleware(base); got != base {
		t.Error("expected the client to be returned unchanged")
	}
}

func TestWrapWithMiddleware_Order(t *testing.T) {
	var calls []string
	record := func(name string) Middleware {
		return MiddlewareFunc{
			BeforeRequestFunc: func(ctx context.Context, req *Request) (*Request, error) {
				calls = append(calls, "before-"+name)
				return req, nil
			},
			AfterResponseFunc: func(ctx context.Context, req *Request, resp *Response) (*Response, error) {
				calls = append(calls, "after-"+name)
				return resp, nil
			},
		}
	}

	base := &stubClient{resp: &Response{Model: "m"}}
	client := WrapWithMiddleware(base, record("a"), record("b"))
	if _, err := client.Complete(context.Background(), &Request{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	want := "before-a,before-b,after-b,after-a"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("call order = %s, want %s", got, want)
	}
}

func TestWrapWithMiddleware_BeforeRequestAborts(t *testing.T) {
	base := &stubClient{resp: &Response{}}
	abort := errors.New("blocked")
	client := WrapWithMiddleware(base, MiddlewareFunc{
		BeforeRequestFunc: func(ctx context.Context, req *Request) (*Request, error) {
			return nil, abort
		},
	})

	if _, err := client.Complete(context.Background(), &Request{}); !errors.Is(err, abort) {
		t.Errorf("expected abort error, got %v", err)
	}
	if base.seen != nil {
		t.Error("client should not have been called")
	}
}

func TestWrapWithMiddleware_OnError(t *testing.T) {
	failure := NewServerError(503, []byte("down"))
	base := &stubClient{err: failure}

	var translated error
	client := WrapWithMiddleware(base,
		MiddlewareFunc{OnErrorFunc: func(ctx context.Context, req *Request, err error) error {
			translated = err
			return nil
		}},
		MiddlewareFunc{OnErrorFunc: func(ctx context.Context, req *Request, err error) error {
			t.Error("second OnError should not run once the error is handled")
			return err
		}},
	)

	_, err := client.Complete(context.Background(), &Request{})
	if !errors.Is(err, failure) {
		t.Errorf("expected original error, got %v", err)
	}
	if translated != failure {
		t.Errorf("first OnError saw %v", translated)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	base := &stubClient{resp: &Response{
		Model:   "gpt-4o",
		Message: NewAssistantMessage().WithText("hi"),
		Usage:   Usage{InputTokens: Int32(3), OutputTokens: Int32(1), TotalTokens: Int32(4)},
	}}
	client := WrapWithMiddleware(base, NewLoggingMiddleware(logger))

	req := &Request{Model: ModelConfig{ModelName: "gpt-4o"}}
	if _, err := client.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"sending completion request"`, `"completion received"`, `"total_tokens":4`, `"component":"llm"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}

	buf.Reset()
	base.err = NewContextLengthError(&ContextLengthExceededError{Message: "too long"}, 400)
	if _, err := client.Complete(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), `"context_length_exceeded":true`) {
		t.Errorf("error log missing classification: %s", buf.String())
	}
}
