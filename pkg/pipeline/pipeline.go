package pipeline

import (
	"context"

	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/internal/types"
)

// Generator runs the document-to-prompt pipeline: analyze the chat's stored
// documents, then synthesize a system prompt from the analysis. The two LLM
// calls are sequential because synthesis depends on the analysis output.
type Generator struct {
	analyzer    types.Analyzer
	synthesizer types.Synthesizer
}

func New(analyzer types.Analyzer, synthesizer types.Synthesizer) *Generator {
	return &Generator{
		analyzer:    analyzer,
		synthesizer: synthesizer,
	}
}

// GeneratePrompt produces a usable prompt for the chat. LLM, credential, and
// parse failures are absorbed by the stages and surface only as degraded
// output; the returned error covers caller cancellation alone.
func (g *Generator) GeneratePrompt(ctx context.Context, chatID string, config models.ChatConfiguration) (models.PromptResult, error) {
	if err := ctx.Err(); err != nil {
		return models.PromptResult{}, err
	}

	config = withDefaults(config)

	analysis := g.analyzer.Analyze(ctx, chatID)
	prompt := g.synthesizer.Synthesize(ctx, config, analysis)

	return models.PromptResult{
		Prompt:   prompt,
		Analysis: analysis,
	}, nil
}

func withDefaults(config models.ChatConfiguration) models.ChatConfiguration {
	if config.ChatName == "" {
		config.ChatName = "Assistant"
	}
	if config.ChatType == "" {
		config.ChatType = "assistant"
	}
	if config.Personality == "" {
		config.Personality = "professional"
	}
	return config
}
