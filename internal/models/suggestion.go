package models

import "github.com/google/uuid"

// SuggestionType is the display severity of a suggestion.
type SuggestionType string

const (
	SuggestionInfo    SuggestionType = "info"
	SuggestionWarning SuggestionType = "warning"
	SuggestionSuccess SuggestionType = "success"
	SuggestionDanger  SuggestionType = "danger"
)

// Suggestion is a coaching hint. Never mutated after creation.
type Suggestion struct {
	ID          string         `json:"id"`
	Type        SuggestionType `json:"type"`
	Text        string         `json:"text"`
	Priority    int            `json:"priority"` // 1-5, 5 most urgent
	Abnormality Abnormality    `json:"abnormality,omitempty"`
	Confidence  float64        `json:"confidence"`
}

// NewSuggestion assigns a fresh ID and clamps priority into 1..5.
func NewSuggestion(typ SuggestionType, text string, priority int, abnormality Abnormality, confidence float64) Suggestion {
	if priority < 1 {
		priority = 1
	}
	if priority > 5 {
		priority = 5
	}
	return Suggestion{
		ID:          uuid.NewString(),
		Type:        typ,
		Text:        text,
		Priority:    priority,
		Abnormality: abnormality,
		Confidence:  confidence,
	}
}
