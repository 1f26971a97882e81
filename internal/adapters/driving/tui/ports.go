// Package tui provides an interactive terminal user interface for asking
// questions about the booking records.
package tui

import (
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// RAG answers questions and reports index health.
	RAG driving.RAGService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
