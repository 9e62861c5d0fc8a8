package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "model is required",
		})
	}

	if c.LLM.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.LLM.BaseURL != "" {
		if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.Secrets.Endpoint != "" {
		if _, err := url.Parse(c.Secrets.Endpoint); err != nil {
			errors = append(errors, ValidationError{
				Field:   "secrets.endpoint",
				Message: "invalid secrets endpoint URL",
			})
		}
	}

	if c.Secrets.MinLength < 1 {
		errors = append(errors, ValidationError{
			Field:   "secrets.min_length",
			Message: "min_length must be positive",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Analyzer.MaxDocuments < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.max_documents",
			Message: "max_documents must be positive",
		})
	}

	if c.Analyzer.PerDocumentChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.per_document_chars",
			Message: "per_document_chars must be positive",
		})
	}

	if c.Analyzer.AggregateChars < c.Analyzer.PerDocumentChars {
		errors = append(errors, ValidationError{
			Field:   "analyzer.aggregate_chars",
			Message: "aggregate_chars must be at least per_document_chars",
		})
	}

	if c.Analyzer.MaxTokens < 1 || c.Analyzer.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "analyzer.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.Synthesizer.MaxTokens < 1 || c.Synthesizer.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "synthesizer.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.Synthesizer.MinPromptChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "synthesizer.min_prompt_chars",
			Message: "min_prompt_chars must be positive",
		})
	}

	if c.Knowledge.MaxDocuments < 1 {
		errors = append(errors, ValidationError{
			Field:   "knowledge.max_documents",
			Message: "max_documents must be positive",
		})
	}

	return errors
}
