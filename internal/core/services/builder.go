package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// Ensure IndexBuilder implements the interface.
var _ driving.IndexBuilder = (*IndexBuilder)(nil)

// IndexBuilder feeds a record source into the RAG service. After a
// successful build, analytics are served from the same records.
type IndexBuilder struct {
	rag       driving.RAGService
	source    driven.RecordSource
	analytics *AnalyticsService
}

// NewIndexBuilder creates an index builder. analytics may be nil.
func NewIndexBuilder(rag driving.RAGService, source driven.RecordSource, analytics *AnalyticsService) *IndexBuilder {
	return &IndexBuilder{rag: rag, source: source, analytics: analytics}
}

// Location returns the record source location.
func (b *IndexBuilder) Location() string {
	if b.source == nil {
		return ""
	}
	return b.source.Location()
}

// Rebuild loads records and builds a fresh index from them.
func (b *IndexBuilder) Rebuild(ctx context.Context) (*domain.BuildReport, error) {
	if b.source == nil {
		return nil, fmt.Errorf("%w: no record source", domain.ErrNotConfigured)
	}

	records, unreadable, err := b.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	logger.Debug("Read %d records from %s (%d unreadable)", len(records), b.source.Location(), len(unreadable))

	report, err := b.rag.BuildIndex(ctx, records)
	if report != nil && len(unreadable) > 0 {
		report.Skipped = append(unreadable, report.Skipped...)
	}
	if err != nil {
		return report, err
	}

	if b.analytics != nil {
		b.analytics.SetRecords(records)
	}
	return report, nil
}
