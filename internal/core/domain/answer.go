package domain

import "time"

// Validity classifies a composed answer.
type Validity string

// Answer validity values.
const (
	// ValidityValid is a structurally sound generated answer.
	ValidityValid Validity = "valid"

	// ValidityEmpty means no supporting context was retrieved.
	ValidityEmpty Validity = "empty"

	// ValidityRejected means the model output failed structural checks.
	ValidityRejected Validity = "rejected"
)

// IsValid returns true if the validity is recognised.
func (v Validity) IsValid() bool {
	switch v {
	case ValidityValid, ValidityEmpty, ValidityRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (v Validity) String() string {
	return string(v)
}

// NoContextAnswerText is returned when retrieval finds nothing relevant.
const NoContextAnswerText = "No relevant booking records were found for this question, so it cannot be answered from the data."

// RejectedAnswerText replaces model output that failed validation.
const RejectedAnswerText = "The language model returned an unusable answer."

// Answer is the result of answering one query.
type Answer struct {
	// Query is the question as asked.
	Query string

	// Context is the retrieved supporting entries in rank order.
	Context RetrievedContext

	// Text is the answer text shown to the caller.
	Text string

	// Validity classifies Text.
	Validity Validity

	// NoContext is true when the answer was produced without supporting records.
	NoContext bool
}

// QueryHistoryEntry is one answered query in the audit log.
type QueryHistoryEntry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	ContextIDs []int64   `json:"context_ids"`
	Answer     string    `json:"answer"`
	Validity   Validity  `json:"validity"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewHistoryEntry builds a history entry from an answer.
// ID and Timestamp are assigned by the history log.
func NewHistoryEntry(a Answer) QueryHistoryEntry {
	return QueryHistoryEntry{
		Query:      a.Query,
		ContextIDs: a.Context.IDs(),
		Answer:     a.Text,
		Validity:   a.Validity,
	}
}

// MaxTopK bounds the number of records a single query may request.
const MaxTopK = 100

// QueryOptions tunes a single query. Zero values fall back to the
// configured retrieval settings.
type QueryOptions struct {
	// TopK is the number of records passed to the model, at most MaxTopK.
	TopK int

	// MinSimilarity overrides the configured threshold when non-nil.
	MinSimilarity *float64

	// Filter restricts retrieval to records whose metadata matches.
	Filter Metadata
}
