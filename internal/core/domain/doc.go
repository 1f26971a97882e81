// Package domain defines the core business entities for hotelrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - BookingRecord: A normalised hotel booking row
//   - EncodedDocument: Retrieval text plus metadata derived from a record
//   - IndexEntry: A document and its embedding as held by the vector index
//   - RetrievedContext: The ranked entries supporting an answer
//   - Answer: A generated answer with its validity
//   - QueryHistoryEntry: One answered query in the audit log
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
