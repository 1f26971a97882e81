package mcp

import (
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers questions and reports index health.
	RAG driving.RAGService

	// Analytics serves aggregate statistics.
	Analytics driving.AnalyticsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.RAG == nil {
		return ErrMissingRAGService
	}
	// Analytics is optional; its tool reports not configured.
	return nil
}
