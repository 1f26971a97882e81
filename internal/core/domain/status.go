package domain

import (
	"context"
	"errors"
)

// Status is the caller-facing outcome of a query or build.
type Status string

// Outcome classes shared by every driving adapter.
const (
	StatusOK         Status = "ok"
	StatusNoData     Status = "no_data"
	StatusDegraded   Status = "degraded"
	StatusBadRequest Status = "bad_request"
	StatusInternal   Status = "internal"
)

// StatusOf classifies an operation outcome.
// A nil error with an answer that had no context is StatusNoData.
func StatusOf(err error, answer *Answer) Status {
	if err == nil {
		if answer != nil && answer.NoContext {
			return StatusNoData
		}
		return StatusOK
	}

	switch {
	case errors.Is(err, ErrEmbeddingUnavailable),
		errors.Is(err, ErrGenerationUnavailable),
		errors.Is(err, ErrNotConfigured),
		errors.Is(err, ErrIndexNotLoaded),
		errors.Is(err, ErrBuildInProgress),
		errors.Is(err, context.DeadlineExceeded):
		return StatusDegraded
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrEncoding),
		errors.Is(err, ErrEmptyIndex),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrEmbeddingRejected),
		errors.Is(err, ErrUnsupportedType):
		return StatusBadRequest
	default:
		return StatusInternal
	}
}
