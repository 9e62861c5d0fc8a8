package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bloomlabs/chatforge/internal/common"
	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/internal/types"
)

// AnalyzerConfig bounds the prompt the analyzer sends. The source deployments
// never agreed on canonical limits, so everything is tunable.
type AnalyzerConfig struct {
	MaxDocuments     int
	PerDocumentChars int
	AggregateChars   int
	MaxTokens        int
	Timeout          time.Duration
	Model            string
}

// Analyzer extracts a fixed schema of business facts from a chat's stored
// documents. Every failure path terminates in the sentinel default analysis;
// Analyze never returns an error and never partially applies results.
type Analyzer struct {
	docs   types.DocumentLister
	llm    types.Completer
	config AnalyzerConfig
}

func NewWithConfig(docs types.DocumentLister, llm types.Completer, config AnalyzerConfig) *Analyzer {
	if config.MaxDocuments == 0 {
		config.MaxDocuments = 3
	}
	if config.PerDocumentChars == 0 {
		config.PerDocumentChars = 2000
	}
	if config.AggregateChars == 0 {
		config.AggregateChars = 6000
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1000
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Analyzer{
		docs:   docs,
		llm:    llm,
		config: config,
	}
}

// Analyze fetches the chat's most recent documents, asks the LLM to extract
// structured facts, and merges the reply over the sentinel defaults.
func (a *Analyzer) Analyze(ctx context.Context, chatID string) models.DocumentAnalysis {
	logger := common.Logger()

	docs, err := a.docs.ListDocuments(ctx, chatID, a.config.MaxDocuments)
	if err != nil {
		logger.Warn("analyzer: document listing failed", "chat_id", chatID, "error", err)
		return models.DefaultAnalysis()
	}
	if len(docs) == 0 {
		return models.DefaultAnalysis()
	}

	content, contentTypes := a.combineContent(docs)
	if content == "" {
		return models.DefaultAnalysis()
	}

	reply, err := a.llm.Complete(ctx, types.CompletionRequest{
		Prompt:    a.extractionPrompt(content),
		Model:     a.config.Model,
		MaxTokens: a.config.MaxTokens,
		Timeout:   a.config.Timeout,
	})
	if err != nil {
		logger.Warn("analyzer: extraction call failed", "chat_id", chatID, "error", err)
		return models.DefaultAnalysis()
	}

	span, ok := FirstJSONObject(reply)
	if !ok {
		logger.Warn("analyzer: no JSON object in reply", "chat_id", chatID)
		return models.DefaultAnalysis()
	}

	analysis := models.DefaultAnalysis()
	if err := json.Unmarshal([]byte(span), &analysis); err != nil {
		logger.Warn("analyzer: reply parse failed", "chat_id", chatID, "error", err)
		return models.DefaultAnalysis()
	}

	normalize(&analysis)
	analysis.DocumentTypes = contentTypes
	return analysis
}

// combineContent concatenates extracted text across documents, truncating
// each to the per-document budget and the whole to the aggregate budget.
func (a *Analyzer) combineContent(docs []models.StoredDocument) (string, []string) {
	var builder strings.Builder
	contentTypes := make([]string, 0, len(docs))

	for _, doc := range docs {
		contentType := doc.ContentType
		if contentType == "" {
			contentType = "unknown"
		}
		contentTypes = append(contentTypes, contentType)

		text := strings.TrimSpace(doc.ExtractedText)
		if text == "" {
			continue
		}
		builder.WriteString("\n")
		builder.WriteString(truncate(text, a.config.PerDocumentChars))
	}

	combined := strings.TrimSpace(builder.String())
	return truncate(combined, a.config.AggregateChars), contentTypes
}

func (a *Analyzer) extractionPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following document content and extract the information needed to build a personalized chatbot.

DOCUMENT CONTENT:
%s

Return a JSON object with exactly this structure:
{
    "company_info": {
        "name": "company or product name identified",
        "industry": "sector or industry identified",
        "description": "one-sentence description of the business"
    },
    "services": ["products or services mentioned"],
    "tone": "professional/friendly/formal/casual based on the content",
    "expertise_areas": ["areas of knowledge identified"],
    "key_concepts": ["important concepts the chatbot should know"],
    "content_summary": "two-sentence summary of what the chatbot needs to know",
    "target_audience": "who the target audience appears to be",
    "main_topics": ["main topics the chat should master"]
}

Be specific and useful. If something is unclear, use "unidentified".`, content)
}

// normalize restores the totality invariant after a merge: no nil slices,
// no blank required fields, and a tone constrained to the known set.
func normalize(analysis *models.DocumentAnalysis) {
	if strings.TrimSpace(analysis.Company.Name) == "" {
		analysis.Company.Name = models.Unidentified
	}
	if strings.TrimSpace(analysis.Company.Industry) == "" {
		analysis.Company.Industry = models.Unidentified
	}
	if strings.TrimSpace(analysis.Company.Description) == "" {
		analysis.Company.Description = models.Unidentified
	}
	if strings.TrimSpace(analysis.ContentSummary) == "" {
		analysis.ContentSummary = models.DefaultSummary
	}
	if strings.TrimSpace(analysis.TargetAudience) == "" {
		analysis.TargetAudience = models.Unidentified
	}

	tone := strings.ToLower(strings.TrimSpace(analysis.Tone))
	analysis.Tone = models.DefaultTone
	for _, valid := range models.ValidTones {
		if tone == valid {
			analysis.Tone = valid
			break
		}
	}

	if analysis.Services == nil {
		analysis.Services = []string{}
	}
	if analysis.ExpertiseAreas == nil {
		analysis.ExpertiseAreas = []string{}
	}
	if analysis.KeyConcepts == nil {
		analysis.KeyConcepts = []string{}
	}
	if analysis.MainTopics == nil {
		analysis.MainTopics = []string{}
	}
	if analysis.DocumentTypes == nil {
		analysis.DocumentTypes = []string{}
	}
}

// truncate cuts s to at most limit runes without splitting a rune.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
