package driving

import (
	"context"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// IndexBuilder rebuilds the index from the configured record source.
type IndexBuilder interface {
	// Rebuild loads every record and swaps in a freshly built index.
	// Unreadable rows and rejected records are listed in the report.
	Rebuild(ctx context.Context) (*domain.BuildReport, error)

	// Location describes where records are read from.
	Location() string
}
