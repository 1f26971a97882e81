package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider or metric name.
	ErrUnsupportedType = errors.New("unsupported type")

	// Index Errors.

	// ErrEncoding indicates a booking record could not be turned into a document.
	ErrEncoding = errors.New("record encoding failed")

	// ErrDimensionMismatch indicates an embedding length differs from the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyIndex indicates a query was issued against an index with no entries.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrIndexNotLoaded indicates no index has been built or loaded yet.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrBuildInProgress indicates another index build is already running.
	ErrBuildInProgress = errors.New("index build in progress")

	// Provider Errors.

	// ErrEmbeddingUnavailable indicates the embedding service could not be reached
	// or kept failing transiently until retries were exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingRejected indicates the embedding provider refused the input.
	// Retrying the same input will not help.
	ErrEmbeddingRejected = errors.New("embedding request rejected")

	// ErrGenerationUnavailable indicates the language model could not produce an answer.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrProviderTransient marks a provider failure worth retrying
	// (timeouts, rate limits, 5xx responses, network errors).
	ErrProviderTransient = errors.New("transient provider failure")

	// ErrProviderRejected marks a provider failure that will not succeed on retry
	// (bad credentials, invalid request, content refusal).
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrMalformedResponse indicates a provider answered with a body that could not be understood.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNotConfigured indicates a required provider has no usable configuration.
	ErrNotConfigured = errors.New("provider not configured")
)

// RecordError describes why a single booking record was rejected.
type RecordError struct {
	// RecordID is the document identifier of the offending record.
	RecordID int64

	// Field is the record field that failed validation, if known.
	Field string

	// Reason is a human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d: %s: %s", e.RecordID, e.Field, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.RecordID, e.Reason)
}

// Unwrap lets errors.Is match ErrEncoding.
func (e *RecordError) Unwrap() error {
	return ErrEncoding
}
