package types

import (
	"context"
	"time"

	"github.com/bloomlabs/chatforge/internal/models"
)

// Core interfaces

// Completer performs a single blocking text completion round trip.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries everything one completion call needs. Prompt is
// truncated by the caller; the client does not enforce length.
type CompletionRequest struct {
	Prompt    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// CredentialProvider resolves the bearer credential for the LLM backend.
// An error means the feature is unavailable, not that the request must fail.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// DocumentLister reads a chat's stored documents, newest first.
type DocumentLister interface {
	ListDocuments(ctx context.Context, chatID string, limit int) ([]models.StoredDocument, error)
}

// DocumentStore extends reads with the ingestion and deletion operations the
// HTTP layer needs.
type DocumentStore interface {
	DocumentLister
	InsertDocument(ctx context.Context, doc models.StoredDocument) error
	DeleteDocument(ctx context.Context, chatID, documentID string) error
}

// ChatStore persists chat records and their generated system prompts.
type ChatStore interface {
	CreateChat(ctx context.Context, chat models.Chat) error
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	ApplySystemPrompt(ctx context.Context, chatID, prompt string) error
}

// PromptGenerator is the pipeline boundary: analyze a chat's documents and
// synthesize a system prompt. The result is always usable, never an error
// caused by LLM or credential failure.
type PromptGenerator interface {
	GeneratePrompt(ctx context.Context, chatID string, config models.ChatConfiguration) (models.PromptResult, error)
}

// Analyzer derives structured facts from a chat's stored documents.
type Analyzer interface {
	Analyze(ctx context.Context, chatID string) models.DocumentAnalysis
}

// Synthesizer turns a chat configuration and an analysis into prompt text.
type Synthesizer interface {
	Synthesize(ctx context.Context, config models.ChatConfiguration, analysis models.DocumentAnalysis) string
}
