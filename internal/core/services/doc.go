// Package services holds the hotelrag core: record encoding, the embedding
// client, retrieval, answer composition, query history and index builds.
//
// RAGService is the entry point used by every driving adapter. It owns the
// live vector index and swaps it atomically after a successful build, so
// queries keep reading the previous index while a rebuild runs.
//
// Services depend only on domain types and driven ports.
package services
