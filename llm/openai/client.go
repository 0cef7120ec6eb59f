package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/chatwire/llm"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/sjson"
)

const defaultRequestTimeout = 600 * time.Second

// RetryConfig controls retries of 429 and 5xx responses.
// Zero durations fall back to the backoff library defaults.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig returns the retry settings used when none are configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
	}
}

// Options configures a ChatClient.
type Options struct {
	APIKey       string
	Organization string
	Model        string // Default model when the request does not name one

	// Endpoint is the full chat completions URL.
	Endpoint string
	// ModelInPath drops "model" from the payload because the endpoint already selects it.
	ModelInPath bool

	ImageFormat       llm.ImageFormat
	UnescapeArguments bool

	HTTPClient          *http.Client
	Retry               RetryConfig
	Clock               llm.Clock
	Logger              zerolog.Logger
	ContextLengthChecks []ContextLengthCheck
}

// ChatClient implements llm.Client against an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	opts   Options
	logger zerolog.Logger
}

// NewChatClient creates a ChatClient from opts.
func NewChatClient(opts Options) (*ChatClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if opts.ImageFormat == "" {
		opts.ImageFormat = llm.ImageFormatOpenAI
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if opts.Clock == nil {
		opts.Clock = llm.SystemClock
	}
	if len(opts.ContextLengthChecks) == 0 {
		opts.ContextLengthChecks = DefaultContextLengthChecks
	}
	return &ChatClient{
		opts:   opts,
		logger: opts.Logger.With().Str("component", "chatClient").Str("endpoint", opts.Endpoint).Logger(),
	}, nil
}

// NewOpenAIClient creates a client for the OpenAI API or a compatible server.
// If baseURL is empty, the official API endpoint is used.
func NewOpenAIClient(apiKey, baseURL, model, organization string, opts Options) (*ChatClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	opts.APIKey = apiKey
	opts.Organization = config.OrgID
	opts.Model = model
	opts.Endpoint = strings.TrimRight(config.BaseURL, "/") + "/chat/completions"
	opts.ImageFormat = llm.ImageFormatOpenAI
	return NewChatClient(opts)
}

// NewDatabricksClient creates a client for a Databricks model serving endpoint.
// Serving endpoints select the model by URL and expect Anthropic-style images.
func NewDatabricksClient(host, token, endpointName string, opts Options) (*ChatClient, error) {
	if host == "" {
		return nil, fmt.Errorf("databricks host is required")
	}
	if endpointName == "" {
		return nil, fmt.Errorf("serving endpoint name is required")
	}
	opts.APIKey = token
	opts.Model = endpointName
	opts.Endpoint = fmt.Sprintf("%s/serving-endpoints/%s/invocations", strings.TrimRight(host, "/"), endpointName)
	opts.ModelInPath = true
	opts.ImageFormat = llm.ImageFormatAnthropic
	opts.UnescapeArguments = true
	return NewChatClient(opts)
}

// Complete implements llm.Client.Complete.
func (c *ChatClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	cfg := req.Model
	if cfg.ModelName == "" {
		cfg.ModelName = c.opts.Model
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model is required")
	}

	payload, err := c.EncodeRequest(cfg, req)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, payload)
	if err != nil {
		return nil, err
	}

	if errJSON, ok := ErrorObject(body); ok {
		if cl := CheckContextLengthError(errJSON, c.opts.ContextLengthChecks...); cl != nil {
			return nil, llm.NewContextLengthError(cl, http.StatusOK)
		}
		return nil, llm.NewProviderError("provider returned an error: "+describeError(errJSON), nil)
	}

	msg, err := ResponseToMessage(body, c.opts.Clock)
	if err != nil {
		return nil, err
	}
	if c.opts.UnescapeArguments {
		msg = UnescapeToolArguments(msg)
	}

	usage, err := GetUsage(body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("response carried no usage data")
		usage = llm.Usage{}
	}

	return &llm.Response{
		Message: msg,
		Usage:   usage,
		Model:   GetModel(body),
	}, nil
}

// EncodeRequest renders the JSON payload that Complete would send for req.
func (c *ChatClient) EncodeRequest(cfg llm.ModelConfig, req *llm.Request) ([]byte, error) {
	payload, err := BuildRequestPayload(cfg, req.System, req.Messages, req.Tools, c.opts.ImageFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to build request payload: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	if c.opts.ModelInPath {
		data, err = sjson.DeleteBytes(data, "model")
		if err != nil {
			return nil, fmt.Errorf("failed to drop model from payload: %w", err)
		}
	}
	return data, nil
}

// post sends payload, retrying retryable server errors with exponential backoff.
func (c *ChatClient) post(ctx context.Context, payload []byte) ([]byte, error) {
	var body []byte
	attempt := 0

	operation := func() error {
		attempt++
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept-Encoding", "gzip, br")
		httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		if c.opts.Organization != "" {
			httpReq.Header.Set("OpenAI-Organization", c.opts.Organization)
		}

		resp, err := c.opts.HTTPClient.Do(httpReq)
		if err != nil {
			return backoff.Permanent(&llm.Error{
				Type:        llm.ErrorTypeNetwork,
				Message:     "failed to send request",
				ProviderErr: err,
			})
		}

		outcome, err := HandleResponse(payload, resp)
		if err != nil {
			return backoff.Permanent(llm.NewProviderError("failed to handle response", err))
		}
		if outcome.Err != nil {
			if outcome.Err.Retryable {
				return outcome.Err
			}
			return backoff.Permanent(c.classifyFailure(outcome.Err))
		}

		body = outcome.Body
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("retrying chat completion")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

// classifyFailure upgrades a failed request to a context length error when the
// response body says so.
func (c *ChatClient) classifyFailure(failure *llm.Error) error {
	errJSON, ok := ErrorObject(failure.Body)
	if !ok {
		return failure
	}
	if cl := CheckContextLengthError(errJSON, c.opts.ContextLengthChecks...); cl != nil {
		c.logger.Debug().Int("status", failure.StatusCode).Msg("request exceeded context length")
		clErr := llm.NewContextLengthError(cl, failure.StatusCode)
		clErr.Payload = failure.Payload
		clErr.Body = failure.Body
		return clErr
	}
	return failure
}

func (c *ChatClient) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	retry := c.opts.Retry
	if retry.InitialInterval > 0 {
		eb.InitialInterval = retry.InitialInterval
	}
	if retry.MaxInterval > 0 {
		eb.MaxInterval = retry.MaxInterval
	}
	if retry.MaxElapsedTime > 0 {
		eb.MaxElapsedTime = retry.MaxElapsedTime
	}
	eb.Multiplier = 2.0
	eb.RandomizationFactor = 0.1
	eb.Reset()
	return backoff.WithMaxRetries(eb, retry.MaxRetries)
}

// UnescapeToolArguments applies UnescapeJSONValues to the arguments of every tool call in msg.
func UnescapeToolArguments(msg llm.Message) llm.Message {
	content := make([]llm.MessageContent, len(msg.Content))
	for i, item := range msg.Content {
		if item.ToolRequest != nil && item.ToolRequest.Call != nil {
			call := *item.ToolRequest.Call
			call.Arguments = UnescapeJSONValues(call.Arguments)
			item = llm.NewToolRequestItem(item.ToolRequest.ID, &call, nil)
		}
		content[i] = item
	}
	msg.Content = content
	return msg
}

// Ensure ChatClient implements llm.Client
var _ llm.Client = (*ChatClient)(nil)
