// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// AnswerCompleted carries the outcome of one question back to the model.
type AnswerCompleted struct {
	Query  string
	Answer *domain.Answer
	Err    error
}

// Status classifies the outcome the way every driving adapter does.
func (m AnswerCompleted) Status() domain.Status {
	return domain.StatusOf(m.Err, m.Answer)
}

// HealthLoaded reports the index state when the TUI starts.
type HealthLoaded struct {
	Health domain.Health
}
