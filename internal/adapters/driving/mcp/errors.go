// Package mcp provides an MCP (Model Context Protocol) server adapter for hotelrag.
// It lets AI assistants ask questions about the booking data, read the query
// history and fetch analytics.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
