package synthesizer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/internal/types"
	"github.com/bloomlabs/chatforge/pkg/llm"
	"github.com/bloomlabs/chatforge/pkg/synthesizer"
)

type fakeCompleter struct {
	reply string
	err   error

	gotPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	f.gotPrompt = req.Prompt
	return f.reply, f.err
}

func supportConfig() models.ChatConfiguration {
	return models.ChatConfiguration{
		ChatName:    "Bot",
		ChatType:    "support",
		Personality: "friendly",
	}
}

func acmeAnalysis() models.DocumentAnalysis {
	analysis := models.DefaultAnalysis()
	analysis.Company.Name = "Acme"
	analysis.Services = []string{"cleaning", "whitening", "implants", "x-rays"}
	return analysis
}

func TestSynthesizeAcceptsGeneratedPrompt(t *testing.T) {
	generated := "You are Bot, a friendly support assistant for Acme customers. Help with scheduling and billing."
	completer := &fakeCompleter{reply: generated}
	s := synthesizer.NewWithConfig(completer, synthesizer.SynthesizerConfig{})

	prompt := s.Synthesize(context.Background(), supportConfig(), acmeAnalysis())

	assert.Equal(t, generated, prompt)
}

func TestSynthesizeStripsEnclosingQuotes(t *testing.T) {
	completer := &fakeCompleter{reply: "\"  You are Bot, a friendly support assistant for Acme customers.  \"\n"}
	s := synthesizer.NewWithConfig(completer, synthesizer.SynthesizerConfig{})

	prompt := s.Synthesize(context.Background(), supportConfig(), acmeAnalysis())

	assert.Equal(t, "You are Bot, a friendly support assistant for Acme customers.", prompt)
}

func TestSynthesizeFallsBackOnLLMFailure(t *testing.T) {
	for name, failure := range map[string]error{
		"unavailable":   llm.ErrUnavailable,
		"timeout":       llm.ErrTimeout,
		"no credential": llm.ErrNoCredential,
	} {
		t.Run(name, func(t *testing.T) {
			completer := &fakeCompleter{err: failure}
			s := synthesizer.NewWithConfig(completer, synthesizer.SynthesizerConfig{})

			prompt := s.Synthesize(context.Background(), supportConfig(), models.DefaultAnalysis())

			assert.Equal(t,
				"You are a friendly assistant specialized in support. Respond in a friendly and helpful manner.",
				prompt)
		})
	}
}

func TestSynthesizeFallsBackOnShortResult(t *testing.T) {
	for _, reply := range []string{"", "   ", "OK", "\"ok\"", "Understood!"} {
		completer := &fakeCompleter{reply: reply}
		s := synthesizer.NewWithConfig(completer, synthesizer.SynthesizerConfig{})

		prompt := s.Synthesize(context.Background(), supportConfig(), models.DefaultAnalysis())

		assert.GreaterOrEqual(t, len(prompt), 20, "reply %q must trigger the fallback", reply)
		assert.Contains(t, prompt, "You are a friendly assistant")
	}
}

func TestSynthesizeNeverReturnsShortPrompt(t *testing.T) {
	// Fuzz-ish sweep over degenerate completions.
	replies := []string{"", "a", "ab", "\"\"", "....", strings.Repeat("x", 19), strings.Repeat("y", 25)}

	for _, reply := range replies {
		completer := &fakeCompleter{reply: reply}
		s := synthesizer.NewWithConfig(completer, synthesizer.SynthesizerConfig{})

		prompt := s.Synthesize(context.Background(), supportConfig(), models.DefaultAnalysis())

		assert.GreaterOrEqual(t, len(prompt), 20)
	}
}

func TestFallbackPromptDeterministic(t *testing.T) {
	config := supportConfig()
	analysis := acmeAnalysis()

	first := synthesizer.FallbackPrompt(config, analysis)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, synthesizer.FallbackPrompt(config, analysis))
	}
}

func TestFallbackPromptIncludesCompanyAndTopServices(t *testing.T) {
	prompt := synthesizer.FallbackPrompt(supportConfig(), acmeAnalysis())

	assert.Contains(t, prompt, "Acme")
	assert.Contains(t, prompt, "cleaning")
	assert.Contains(t, prompt, "whitening")
	assert.Contains(t, prompt, "implants")
	assert.NotContains(t, prompt, "x-rays", "at most 3 services appear")
}

func TestFallbackPromptOmitsSentinelCompany(t *testing.T) {
	prompt := synthesizer.FallbackPrompt(supportConfig(), models.DefaultAnalysis())

	assert.Equal(t,
		"You are a friendly assistant specialized in support. Respond in a friendly and helpful manner.",
		prompt)
	assert.NotContains(t, prompt, models.Unidentified)
}

func TestFallbackPromptCompanyWithoutServices(t *testing.T) {
	analysis := models.DefaultAnalysis()
	analysis.Company.Name = "Acme"

	prompt := synthesizer.FallbackPrompt(supportConfig(), analysis)

	assert.Equal(t,
		"You are a friendly assistant specialized in support. You have knowledge of Acme. Respond in a friendly and helpful manner.",
		prompt)
}

func TestGenerationPromptEmbedsSentinelsVerbatim(t *testing.T) {
	completer := &fakeCompleter{reply: "You are Bot, a capable assistant ready to help users."}
	s := synthesizer.NewWithConfig(completer, synthesizer.SynthesizerConfig{})

	s.Synthesize(context.Background(), supportConfig(), models.DefaultAnalysis())

	assert.Contains(t, completer.gotPrompt, models.Unidentified)
	assert.Contains(t, completer.gotPrompt, "friendly")
	assert.Contains(t, completer.gotPrompt, "support")
	assert.Contains(t, completer.gotPrompt, "Does NOT mention file names, documents, or uploads")
}
