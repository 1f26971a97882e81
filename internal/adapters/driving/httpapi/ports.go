package httpapi

import (
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// RAG answers questions and reports index health.
	RAG driving.RAGService

	// Analytics serves aggregate statistics. Optional.
	Analytics driving.AnalyticsService

	// Builder rebuilds the index from the record source. Optional.
	Builder driving.IndexBuilder
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
