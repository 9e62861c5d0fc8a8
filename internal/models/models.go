package models

import "time"

// Sentinel values used when a fact could not be extracted from documents.
// DocumentAnalysis records are always total: every field carries either an
// extracted value or one of these defaults, never a missing key.
const (
	Unidentified   = "unidentified"
	DefaultTone    = "professional"
	DefaultSummary = "Documents uploaded for reference"
)

// StoredDocument is a previously-ingested document belonging to a chat.
// Rows are read newest-first by UploadedAt.
type StoredDocument struct {
	ID               string
	ChatID           string
	Filename         string
	OriginalFilename string
	ContentType      string
	FileSize         int64
	ExtractedText    string
	ContentSummary   string
	ProcessingStatus string
	UploadedAt       time.Time
}

// CompanyInfo holds the business identity extracted from documents.
type CompanyInfo struct {
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// DocumentAnalysis is the structured result of analyzing a chat's documents.
// It is computed fresh per request and never persisted.
type DocumentAnalysis struct {
	Company        CompanyInfo `json:"company_info"`
	Services       []string    `json:"services"`
	Tone           string      `json:"tone"`
	ExpertiseAreas []string    `json:"expertise_areas"`
	KeyConcepts    []string    `json:"key_concepts"`
	ContentSummary string      `json:"content_summary"`
	TargetAudience string      `json:"target_audience"`
	MainTopics     []string    `json:"main_topics"`
	DocumentTypes  []string    `json:"document_types"`
}

// DefaultAnalysis returns the all-sentinel analysis used whenever extraction
// cannot run or fails. Slices are non-nil so callers never branch on nil.
func DefaultAnalysis() DocumentAnalysis {
	return DocumentAnalysis{
		Company: CompanyInfo{
			Name:        Unidentified,
			Industry:    Unidentified,
			Description: Unidentified,
		},
		Services:       []string{},
		Tone:           DefaultTone,
		ExpertiseAreas: []string{},
		KeyConcepts:    []string{},
		ContentSummary: DefaultSummary,
		TargetAudience: Unidentified,
		MainTopics:     []string{},
		DocumentTypes:  []string{},
	}
}

// ValidTones are the accepted values for DocumentAnalysis.Tone.
var ValidTones = []string{"professional", "friendly", "formal", "casual"}

// ChatConfiguration is the caller-supplied description of the chat being
// provisioned. Read-only input to the pipeline.
type ChatConfiguration struct {
	ChatName    string `json:"chat_name"`
	ChatType    string `json:"chat_type"`
	Personality string `json:"personality"`
	Description string `json:"description"`
}

// Chat is the persisted chat record the generated prompt is applied to.
type Chat struct {
	ID           string
	Name         string
	Type         string
	Personality  string
	Description  string
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PromptResult is the pipeline's final output. Ownership of the prompt text
// transfers to the caller, who is responsible for persisting it.
type PromptResult struct {
	Prompt   string           `json:"prompt"`
	Analysis DocumentAnalysis `json:"analysis"`
}
