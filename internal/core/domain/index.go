package domain

import (
	"fmt"
	"time"
)

// Metadata holds scalar attributes attached to an indexed document.
// Values are string, int64, float64 or bool.
type Metadata map[string]any

// Metadata keys written by the record encoder.
const (
	MetaHotel             = "hotel"
	MetaCountry           = "country"
	MetaArrivalDate       = "arrival_date"
	MetaArrivalYear       = "arrival_year"
	MetaArrivalMonth      = "arrival_month"
	MetaIsCanceled        = "is_canceled"
	MetaReservationStatus = "reservation_status"
	MetaRoomType          = "room_type"
	MetaLeadTime          = "lead_time"
	MetaTotalNights       = "total_nights"
	MetaADR               = "adr"
	MetaTotalRevenue      = "total_revenue"
)

// Matches reports whether every key in filter is present in m with an equal value.
// Numbers compare by value, so a decoded JSON 42.0 matches int64(42).
// A nil or empty filter matches everything.
func (m Metadata) Matches(filter Metadata) bool {
	for k, want := range filter {
		got, ok := m[k]
		if !ok {
			return false
		}
		if !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return NormaliseScalar(a) == NormaliseScalar(b)
}

func asFloat(v any) (float64, bool) {
	switch n := NormaliseScalar(v).(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// FilterFromJSON converts a decoded JSON object into a metadata filter.
// Only string, number and boolean values are accepted.
func FilterFromJSON(raw map[string]any) (Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filter := make(Metadata, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case string, float64, bool:
			filter[k] = v
		default:
			return nil, fmt.Errorf("%w: filter %q must be a string, number or boolean", ErrInvalidInput, k)
		}
	}
	return filter, nil
}

// Clone returns a shallow copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Float returns the value at key as a float64 when it is numeric.
func (m Metadata) Float(key string) (float64, bool) {
	return asFloat(m[key])
}

// String returns the value at key when it is a string.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// NormaliseScalar maps the integer and float kinds onto int64 and float64.
// Other values pass through untouched.
func NormaliseScalar(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float32:
		return float64(n)
	default:
		return v
	}
}

// EncodedDocument is the retrieval text and metadata derived from one record.
type EncodedDocument struct {
	// DocumentID equals the source record's ID.
	DocumentID int64

	// Text is the deterministic natural-language rendering of the record.
	Text string

	// Metadata carries filterable scalar attributes.
	Metadata Metadata
}

// IndexEntry is a stored document with its embedding.
type IndexEntry struct {
	DocumentID int64
	Text       string
	Embedding  []float32
	Metadata   Metadata
}

// ScoredEntry is an index entry with its cosine similarity to a query.
type ScoredEntry struct {
	Entry      IndexEntry
	Similarity float64
}

// RetrievedContext is the ordered list of entries supporting an answer.
// Entries are sorted by similarity descending, ties by ascending DocumentID.
type RetrievedContext struct {
	Entries []ScoredEntry
}

// Len returns the number of retrieved entries.
func (c RetrievedContext) Len() int {
	return len(c.Entries)
}

// IsEmpty reports whether nothing was retrieved.
func (c RetrievedContext) IsEmpty() bool {
	return len(c.Entries) == 0
}

// IDs returns the document IDs in rank order.
func (c RetrievedContext) IDs() []int64 {
	ids := make([]int64, len(c.Entries))
	for i := range c.Entries {
		ids[i] = c.Entries[i].Entry.DocumentID
	}
	return ids
}

// IndexSnapshot is the persisted form of a vector index.
type IndexSnapshot struct {
	// Dimension is the embedding length shared by every entry.
	Dimension int

	// EmbeddingModel names the model that produced the embeddings.
	EmbeddingModel string

	// BuiltAt is when the snapshot was written.
	BuiltAt time.Time

	// Entries are the stored documents in ascending DocumentID order.
	Entries []IndexEntry
}

// BuildReport summarises an index build.
type BuildReport struct {
	// Indexed is the number of documents written to the new index.
	Indexed int

	// Skipped lists records rejected by the encoder.
	Skipped []*RecordError

	// Dimension is the embedding dimension of the new index.
	Dimension int

	// Duration is the wall time of the build.
	Duration time.Duration
}

// Health reports the state of the loaded index.
type Health struct {
	IndexLoaded bool      `json:"index_loaded"`
	EntryCount  int       `json:"entry_count"`
	Dimension   int       `json:"dimension"`
	BuiltAt     time.Time `json:"built_at,omitzero"`
}
