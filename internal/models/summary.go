// Package models defines the summary records exchanged between storage, the API and the CLI.
package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Summary is a stored extractive summary of one source text.
type Summary struct {
	ID            string             `json:"id" db:"id"`
	Source        string             `json:"source" db:"source"`
	Ratio         float64            `json:"ratio" db:"ratio"`
	SentenceCount int                `json:"sentence_count" db:"sentence_count"`
	Sentences     []SelectedSentence `json:"sentences" db:"sentences"`
	Text          string             `json:"text" db:"text"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}

// SelectedSentence is one sentence kept in a summary.
type SelectedSentence struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ErrInvalidRatio is returned for a ratio outside (0, 1].
var ErrInvalidRatio = errors.New("ratio must be in (0, 1]")

// SummarizeRequest is the input for summarizing raw text.
type SummarizeRequest struct {
	Text   string  `json:"text"`
	Ratio  float64 `json:"ratio,omitempty"`
	Source string  `json:"source,omitempty"`
	// Save persists the summary to history.
	Save bool `json:"save,omitempty"`
	// Email lists recipients who get the summary by mail.
	Email []string `json:"email,omitempty"`
}

// Validate checks the request. A zero ratio means "use the configured default".
func (r *SummarizeRequest) Validate() error {
	if math.IsNaN(r.Ratio) || r.Ratio < 0 || r.Ratio > 1 {
		return fmt.Errorf("%w, got %v", ErrInvalidRatio, r.Ratio)
	}
	return nil
}

// SummaryList is a page of stored summaries.
type SummaryList struct {
	Summaries []*Summary `json:"summaries"`
	Total     int64      `json:"total"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
}
