package driven

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// RecordSource loads normalised booking records.
type RecordSource interface {
	// Load reads every record. Rows that cannot be parsed are reported in
	// the returned slice of record errors and skipped.
	Load(ctx context.Context) ([]domain.BookingRecord, []*domain.RecordError, error)

	// Location describes where records come from (file path, URL).
	Location() string
}
