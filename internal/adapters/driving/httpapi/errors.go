// Package httpapi provides the HTTP adapter for hotelrag, built on gin.
// It exposes question answering, analytics, query history, health and
// index rebuilds as JSON endpoints.
package httpapi

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("httpapi: rag service is required")
