package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/bloomlabs/chatforge/internal/types"
	"github.com/bloomlabs/chatforge/pkg/llm"
)

type fakeModel struct {
	resp *llms.ContentResponse
	err  error

	gotMessages []llms.MessageContent
	calls       int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.gotMessages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func reply(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}
}

type staticCredentials struct {
	token string
	err   error
}

func (s staticCredentials) Credential(ctx context.Context) (string, error) {
	return s.token, s.err
}

func TestCompleteReturnsGeneratedText(t *testing.T) {
	model := &fakeModel{resp: reply("generated text")}
	client := llm.NewFromModel(model)

	got, err := client.Complete(context.Background(), types.CompletionRequest{
		Prompt:    "describe the company",
		MaxTokens: 1000,
	})

	require.NoError(t, err)
	assert.Equal(t, "generated text", got)
	require.Equal(t, 1, model.calls)
	require.Len(t, model.gotMessages, 1)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.gotMessages[0].Role)
}

func TestCompleteClassifiesUpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		upstream error
		want     error
	}{
		{name: "deadline", upstream: context.DeadlineExceeded, want: llm.ErrTimeout},
		{name: "timeout message", upstream: errors.New("request timeout after 30s"), want: llm.ErrTimeout},
		{name: "http 429", upstream: errors.New("API returned unexpected status code: 429"), want: llm.ErrRateLimited},
		{name: "rate limit message", upstream: errors.New("rate limit exceeded"), want: llm.ErrRateLimited},
		{name: "overloaded", upstream: errors.New("overloaded_error: try again later"), want: llm.ErrRateLimited},
		{name: "decode failure", upstream: errors.New("failed to decode response body"), want: llm.ErrBadResponse},
		{name: "unmarshal failure", upstream: errors.New("json: cannot unmarshal string"), want: llm.ErrBadResponse},
		{name: "connection refused", upstream: errors.New("dial tcp: connection refused"), want: llm.ErrUnavailable},
		{name: "http 500", upstream: errors.New("API returned unexpected status code: 500"), want: llm.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewFromModel(&fakeModel{err: tt.upstream})

			_, err := client.Complete(context.Background(), types.CompletionRequest{Prompt: "p"})

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	tests := []struct {
		name string
		resp *llms.ContentResponse
	}{
		{name: "nil response", resp: nil},
		{name: "no choices", resp: &llms.ContentResponse{}},
		{name: "nil choice", resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{nil}}},
		{name: "blank text", resp: reply("   \n\t ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewFromModel(&fakeModel{resp: tt.resp})

			_, err := client.Complete(context.Background(), types.CompletionRequest{Prompt: "p"})

			assert.ErrorIs(t, err, llm.ErrBadResponse)
		})
	}
}

func TestCompleteWithoutCredential(t *testing.T) {
	client, err := llm.NewWithConfig(llm.ClientConfig{
		Credentials: staticCredentials{err: errors.New("store unreachable")},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), types.CompletionRequest{Prompt: "p"})

	assert.ErrorIs(t, err, llm.ErrNoCredential)
}

func TestCompleteWithEmptyCredential(t *testing.T) {
	client, err := llm.NewWithConfig(llm.ClientConfig{
		Credentials: staticCredentials{token: ""},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), types.CompletionRequest{Prompt: "p"})

	assert.ErrorIs(t, err, llm.ErrNoCredential)
}

func TestNewWithConfigRequiresCredentialProvider(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ClientConfig{})

	assert.Error(t, err)
}

func TestCompleteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := llm.NewFromModel(&fakeModel{resp: reply("unused")})

	_, err := client.Complete(ctx, types.CompletionRequest{Prompt: "p"})

	assert.Error(t, err)
}
