package ingest

import (
	"errors"
	"fmt"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// ErrDuplicatePosting signals that a posting is already stored (or already
// accepted earlier in the same batch). It is a skip signal, not a failure.
var ErrDuplicatePosting = errors.New("duplicate posting")

// NormalizationError rejects a raw record that cannot become a canonical
// posting. The pipeline skips the record and moves on.
type NormalizationError struct {
	Reason string
}

func (e *NormalizationError) Error() string {
	return "normalize posting: " + e.Reason
}

// SourceErrorKind classifies a job-source failure.
type SourceErrorKind string

const (
	SourceTimeout     SourceErrorKind = "timeout"
	SourceRateLimited SourceErrorKind = "rate_limited"
	SourceMalformed   SourceErrorKind = "malformed_response"
	SourceUnavailable SourceErrorKind = "unavailable"
)

// SourceError records one failed query. The pipeline continues with the
// remaining queries.
type SourceError struct {
	Query Query
	Kind  SourceErrorKind
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source query %q (%s): %s: %v", e.Query.Keyword, e.Query.Country, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// StorageError records a persistence failure for one record.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InvalidTransitionError rejects a status change not allowed by the
// application state machine.
type InvalidTransitionError struct {
	From models.Status
	To   models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
