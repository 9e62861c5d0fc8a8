package analyzer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/internal/types"
	"github.com/bloomlabs/chatforge/pkg/analyzer"
	"github.com/bloomlabs/chatforge/pkg/llm"
)

type fakeLister struct {
	docs []models.StoredDocument
	err  error

	gotChatID string
	gotLimit  int
}

func (f *fakeLister) ListDocuments(ctx context.Context, chatID string, limit int) ([]models.StoredDocument, error) {
	f.gotChatID = chatID
	f.gotLimit = limit
	return f.docs, f.err
}

type fakeCompleter struct {
	reply string
	err   error

	gotPrompt    string
	gotMaxTokens int
	calls        int
}

func (f *fakeCompleter) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	f.calls++
	f.gotPrompt = req.Prompt
	f.gotMaxTokens = req.MaxTokens
	return f.reply, f.err
}

func textDoc(text, contentType string) models.StoredDocument {
	return models.StoredDocument{
		ID:            "doc-1",
		ChatID:        "chat-1",
		Filename:      "notes.txt",
		ContentType:   contentType,
		ExtractedText: text,
		UploadedAt:    time.Now(),
	}
}

func TestAnalyzeEmptyDocumentSet(t *testing.T) {
	lister := &fakeLister{}
	completer := &fakeCompleter{}
	a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{})

	result := a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, models.DefaultAnalysis(), result)
	assert.Equal(t, 0, completer.calls, "no documents means no LLM call")
	assert.Equal(t, "chat-1", lister.gotChatID)
	assert.Equal(t, 3, lister.gotLimit)
}

func TestAnalyzeListingFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	a := analyzer.NewWithConfig(lister, &fakeCompleter{}, analyzer.AnalyzerConfig{})

	result := a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, models.DefaultAnalysis(), result)
}

func TestAnalyzeBlankDocuments(t *testing.T) {
	lister := &fakeLister{docs: []models.StoredDocument{
		textDoc("   \n  ", "text/plain"),
		textDoc("", "application/pdf"),
	}}
	completer := &fakeCompleter{}
	a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{})

	result := a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, models.DefaultAnalysis(), result)
	assert.Equal(t, 0, completer.calls)
}

func TestAnalyzeLLMFailures(t *testing.T) {
	failures := map[string]error{
		"unavailable":   llm.ErrUnavailable,
		"rate limited":  llm.ErrRateLimited,
		"timeout":       llm.ErrTimeout,
		"bad response":  llm.ErrBadResponse,
		"no credential": llm.ErrNoCredential,
	}

	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			lister := &fakeLister{docs: []models.StoredDocument{textDoc("Acme Dental offers cleaning.", "text/plain")}}
			completer := &fakeCompleter{err: failure}
			a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{})

			result := a.Analyze(context.Background(), "chat-1")

			// Failure never partially applies: the result is the exact sentinel.
			assert.Equal(t, models.DefaultAnalysis(), result)
		})
	}
}

func TestAnalyzeMalformedReplies(t *testing.T) {
	replies := map[string]string{
		"plain prose":        "The document describes a dental clinic in some detail.",
		"truncated object":   `{"company_info": {"name": "Acme Dental"`,
		"non-object JSON":    `[1, 2, 3]`,
		"wrongly typed keys": `{"services": "not a list", "tone": 5}`,
		"empty reply":        "",
	}

	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			lister := &fakeLister{docs: []models.StoredDocument{textDoc("Acme Dental offers cleaning.", "text/plain")}}
			completer := &fakeCompleter{reply: reply}
			a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{})

			result := a.Analyze(context.Background(), "chat-1")

			assert.Equal(t, models.DefaultAnalysis(), result)
		})
	}
}

func TestAnalyzeSuccessfulExtraction(t *testing.T) {
	reply := `Here is the extraction:
{
	"company_info": {"name": "Acme Dental", "industry": "healthcare", "description": "A dental clinic."},
	"services": ["cleaning", "whitening"],
	"tone": "friendly",
	"expertise_areas": ["dentistry"],
	"content_summary": "A clinic offering dental care.",
	"target_audience": "patients",
	"main_topics": ["appointments", "pricing"]
}`

	lister := &fakeLister{docs: []models.StoredDocument{
		textDoc("Acme Dental, services: cleaning, whitening", "text/plain"),
		textDoc("price list", "application/pdf"),
	}}
	completer := &fakeCompleter{reply: reply}
	a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{})

	result := a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, "Acme Dental", result.Company.Name)
	assert.Equal(t, "healthcare", result.Company.Industry)
	assert.Contains(t, result.Services, "cleaning")
	assert.Contains(t, result.Services, "whitening")
	assert.Equal(t, "friendly", result.Tone)
	assert.Equal(t, []string{"text/plain", "application/pdf"}, result.DocumentTypes)
}

func TestAnalyzeMergeKeepsDefaultsForMissingFields(t *testing.T) {
	reply := `{"company_info": {"name": "Acme Dental"}, "services": ["cleaning"]}`

	lister := &fakeLister{docs: []models.StoredDocument{textDoc("Acme Dental", "text/plain")}}
	completer := &fakeCompleter{reply: reply}
	a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{})

	result := a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, "Acme Dental", result.Company.Name)
	assert.Equal(t, models.Unidentified, result.Company.Industry)
	assert.Equal(t, models.DefaultTone, result.Tone)
	assert.Equal(t, models.DefaultSummary, result.ContentSummary)
	assert.Equal(t, models.Unidentified, result.TargetAudience)
	assert.NotNil(t, result.MainTopics)
	assert.NotNil(t, result.ExpertiseAreas)
}

func TestAnalyzeUnknownToneFallsBack(t *testing.T) {
	reply := `{"tone": "sarcastic"}`

	lister := &fakeLister{docs: []models.StoredDocument{textDoc("text", "text/plain")}}
	a := analyzer.NewWithConfig(lister, &fakeCompleter{reply: reply}, analyzer.AnalyzerConfig{})

	result := a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, models.DefaultTone, result.Tone)
}

func TestAnalyzeTruncatesDocumentText(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}

	lister := &fakeLister{docs: []models.StoredDocument{textDoc(string(long), "text/plain")}}
	completer := &fakeCompleter{reply: `{"tone": "formal"}`}
	a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{
		PerDocumentChars: 100,
		AggregateChars:   150,
	})

	result := a.Analyze(context.Background(), "chat-1")

	require.Equal(t, 1, completer.calls)
	assert.Equal(t, "formal", result.Tone)
	// The 5000-char body must have been cut to the per-document budget
	// before reaching the prompt.
	assert.NotContains(t, completer.gotPrompt, string(long[:200]))
	assert.Contains(t, completer.gotPrompt, string(long[:100]))
}

func TestAnalyzeUsesConfiguredBudgets(t *testing.T) {
	lister := &fakeLister{docs: []models.StoredDocument{textDoc("content", "text/plain")}}
	completer := &fakeCompleter{reply: `{}`}
	a := analyzer.NewWithConfig(lister, completer, analyzer.AnalyzerConfig{
		MaxDocuments: 5,
		MaxTokens:    400,
	})

	a.Analyze(context.Background(), "chat-1")

	assert.Equal(t, 5, lister.gotLimit)
	assert.Equal(t, 400, completer.gotMaxTokens)
}
