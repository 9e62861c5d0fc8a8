package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"

	"github.com/bloomlabs/chatforge/internal/common"
	"github.com/bloomlabs/chatforge/internal/types"
)

// Failure taxonomy. Every Complete error wraps exactly one of these, and all
// of them are recoverable: callers substitute a fallback value instead of
// terminating the pipeline.
var (
	ErrNoCredential = errors.New("llm: credential unavailable")
	ErrUnavailable  = errors.New("llm: upstream unavailable")
	ErrRateLimited  = errors.New("llm: rate limited")
	ErrTimeout      = errors.New("llm: request timed out")
	ErrBadResponse  = errors.New("llm: malformed upstream response")
)

// ClientConfig represents the configuration for the completion client.
type ClientConfig struct {
	Credentials types.CredentialProvider
	Model       string
	BaseURL     string
	RateLimit   float64 // outbound requests per second
}

// Client performs single blocking completion round trips against the text
// generation backend. No retries, no streaming, no partial results.
type Client struct {
	config  ClientConfig
	limiter *rate.Limiter

	mu    sync.Mutex
	model llms.Model
	build func(token string) (llms.Model, error)
}

// NewWithConfig creates a completion client. The underlying model is built
// lazily on first use so that credential resolution failures surface as
// ErrNoCredential per call rather than at startup.
func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.Credentials == nil {
		return nil, fmt.Errorf("credential provider is required")
	}
	if config.Model == "" {
		config.Model = "claude-3-haiku-20240307"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	c := &Client{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
	c.build = func(token string) (llms.Model, error) {
		opts := []anthropic.Option{
			anthropic.WithToken(token),
			anthropic.WithModel(config.Model),
		}
		if config.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
		}
		return anthropic.New(opts...)
	}
	return c, nil
}

// NewFromModel wraps an already-constructed model. Used by tests and by
// deployments that point at a local backend.
func NewFromModel(model llms.Model) *Client {
	return &Client{
		config:  ClientConfig{Model: "claude-3-haiku-20240307", RateLimit: 2},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		model:   model,
	}
}

// Complete sends the prompt and returns the generated text. The prompt is
// truncated by the caller before it reaches this client.
func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	model, err := c.resolveModel(ctx)
	if err != nil {
		return "", err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	opts := []llms.CallOption{}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt),
	}

	resp, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		common.Logger().Warn("llm: completion failed", "model", req.Model, "error", err)
		return "", classify(err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", fmt.Errorf("%w: empty completion", ErrBadResponse)
	}

	text := resp.Choices[0].Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: blank completion", ErrBadResponse)
	}

	return text, nil
}

func (c *Client) resolveModel(ctx context.Context) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return c.model, nil
	}

	token, err := c.config.Credentials.Credential(ctx)
	if err != nil || token == "" {
		return nil, fmt.Errorf("%w: %v", ErrNoCredential, err)
	}

	model, err := c.build(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.model = model
	return model, nil
}

// classify maps transport and API errors onto the failure taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "unmarshal") || strings.Contains(msg, "decode"):
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
