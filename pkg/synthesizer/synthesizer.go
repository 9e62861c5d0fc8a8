package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bloomlabs/chatforge/internal/common"
	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/internal/types"
)

type SynthesizerConfig struct {
	MaxTokens      int
	Timeout        time.Duration
	Model          string
	MinPromptChars int
}

// Synthesizer turns a chat configuration plus a document analysis into a
// system prompt. It never fails: when the generative path is unavailable or
// returns a degenerate result, a deterministic template sentence is used.
type Synthesizer struct {
	llm    types.Completer
	config SynthesizerConfig
}

func NewWithConfig(llm types.Completer, config SynthesizerConfig) *Synthesizer {
	if config.MaxTokens == 0 {
		config.MaxTokens = 800
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MinPromptChars == 0 {
		config.MinPromptChars = 20
	}

	return &Synthesizer{
		llm:    llm,
		config: config,
	}
}

// Synthesize returns usable prompt text for the given inputs. Sentinel
// analysis values are embedded verbatim in the generation prompt so the
// model sees which facts are low confidence.
func (s *Synthesizer) Synthesize(ctx context.Context, config models.ChatConfiguration, analysis models.DocumentAnalysis) string {
	reply, err := s.llm.Complete(ctx, types.CompletionRequest{
		Prompt:    s.generationPrompt(config, analysis),
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
		Timeout:   s.config.Timeout,
	})
	if err != nil {
		common.Logger().Warn("synthesizer: generation call failed", "chat", config.ChatName, "error", err)
		return FallbackPrompt(config, analysis)
	}

	prompt := stripQuotes(strings.TrimSpace(reply))
	if len(prompt) < s.config.MinPromptChars {
		// A truncated acknowledgment is worse than the template.
		common.Logger().Warn("synthesizer: generated prompt too short", "chat", config.ChatName, "length", len(prompt))
		return FallbackPrompt(config, analysis)
	}

	return prompt
}

func (s *Synthesizer) generationPrompt(config models.ChatConfiguration, analysis models.DocumentAnalysis) string {
	return fmt.Sprintf(`Create the PERFECT system prompt for a chatbot with this information:

CHAT CONFIGURATION:
- Name: %s
- Type: %s
- Personality: %s
- Description: %s

DOCUMENT ANALYSIS:
- Company/Product: %s
- Industry: %s
- Services: %s
- Expertise: %s
- Tone: %s
- Target audience: %s
- Summary: %s
- Main topics: %s

CREATE A PROFESSIONAL PROMPT THAT:
1. Does NOT mention file names, documents, or uploads
2. Is natural and conversational
3. Uses the document information as internal knowledge
4. Has the %s personality
5. Focuses on the %s chat type
6. Is specific and actionable

Return ONLY the system prompt, with no additional explanation.`,
		config.ChatName,
		config.ChatType,
		config.Personality,
		config.Description,
		analysis.Company.Name,
		analysis.Company.Industry,
		joinOrSentinel(analysis.Services),
		joinOrSentinel(analysis.ExpertiseAreas),
		analysis.Tone,
		analysis.TargetAudience,
		analysis.ContentSummary,
		joinOrSentinel(analysis.MainTopics),
		config.Personality,
		config.ChatType,
	)
}

// FallbackPrompt builds the deterministic template sentence used whenever
// generation fails or underperforms. Company and services clauses appear only
// when the analysis carries real values.
func FallbackPrompt(config models.ChatConfiguration, analysis models.DocumentAnalysis) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "You are a %s assistant specialized in %s.", config.Personality, config.ChatType)

	company := analysis.Company.Name
	if company == models.Unidentified {
		company = ""
	}

	services := analysis.Services
	if len(services) > 3 {
		services = services[:3]
	}

	if company != "" {
		fmt.Fprintf(&builder, " You have knowledge of %s", company)
		if len(services) > 0 {
			fmt.Fprintf(&builder, " and its services: %s.", strings.Join(services, ", "))
		} else {
			builder.WriteString(".")
		}
	}

	fmt.Fprintf(&builder, " Respond in a %s and helpful manner.", config.Personality)

	return builder.String()
}

func joinOrSentinel(values []string) string {
	if len(values) == 0 {
		return models.Unidentified
	}
	return strings.Join(values, ", ")
}

// stripQuotes removes a single layer of enclosing straight double quotes.
// Nested and curly quotes are left alone.
func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
