package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bloomlabs/chatforge/internal/models"
)

// ContextConfig bounds the document context block attached to chat turns.
type ContextConfig struct {
	MaxDocuments     int
	PerDocumentChars int
}

// BuildContext selects the documents most relevant to the query and formats
// them into a context block for the chat prompt. Relevance is keyword overlap
// between the query and the extracted text; with an empty query every
// document qualifies and newest-first order is kept. Returns "" when the chat
// has no documents.
func BuildContext(docs []models.StoredDocument, query string, config ContextConfig) string {
	if len(docs) == 0 {
		return ""
	}
	if config.MaxDocuments == 0 {
		config.MaxDocuments = 3
	}
	if config.PerDocumentChars == 0 {
		config.PerDocumentChars = 800
	}

	type scored struct {
		doc   models.StoredDocument
		score int
		order int
	}

	words := strings.Fields(strings.ToLower(query))
	var relevant []scored

	for i, doc := range docs {
		content := strings.ToLower(doc.ExtractedText)
		score := 0
		for _, word := range words {
			if strings.Contains(content, word) {
				score++
			}
		}
		if score > 0 || query == "" {
			relevant = append(relevant, scored{doc: doc, score: score, order: i})
		}
	}

	if len(relevant) == 0 {
		return ""
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		if relevant[i].score != relevant[j].score {
			return relevant[i].score > relevant[j].score
		}
		return relevant[i].order < relevant[j].order
	})

	if len(relevant) > config.MaxDocuments {
		relevant = relevant[:config.MaxDocuments]
	}

	var builder strings.Builder
	builder.WriteString("=== CHAT DOCUMENTS ===\n\n")

	for _, entry := range relevant {
		fmt.Fprintf(&builder, "%s:\n", entry.doc.Filename)
		builder.WriteString(truncate(entry.doc.ExtractedText, config.PerDocumentChars))
		builder.WriteString("\n\n")
	}

	return builder.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
