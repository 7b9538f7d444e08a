package models

import (
	"errors"
	"fmt"
)

// ErrorKind tags every failure the pipeline can produce
type ErrorKind string

const (
	ErrInvalidName              ErrorKind = "invalid_name"
	ErrNameNotFound             ErrorKind = "name_not_found"
	ErrAffiliationMissing       ErrorKind = "affiliation_missing"
	ErrOrganisationLookupFailed ErrorKind = "organisation_lookup_failed"
	ErrRateLimited              ErrorKind = "rate_limited"
	ErrTimeout                  ErrorKind = "timeout"
	ErrNetworkError             ErrorKind = "network_error"
	ErrServerError              ErrorKind = "server_error"
	ErrProofOfWorkRejected      ErrorKind = "pow_rejected"
	ErrProofOfWorkExhausted     ErrorKind = "pow_exhausted"
	ErrCacheCorruption          ErrorKind = "cache_corruption"
)

// ErrNoValidNames is the pipeline's only hard input failure
var ErrNoValidNames = errors.New("No valid names entered")

// ResolverError carries enough context for log correlation without leaking
// raw upstream payloads.
type ResolverError struct {
	Kind       ErrorKind
	EntityType string
	EntityID   int64
	Err        error
}

func (e *ResolverError) Error() string {
	if e.EntityID != 0 {
		return fmt.Sprintf("%s: %s %d: %v", e.Kind, e.EntityType, e.EntityID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal per-row issue surfaced to the caller
type Warning struct {
	Kind    ErrorKind `json:"kind"`
	Name    string    `json:"name,omitempty"`
	ID      int32     `json:"id,omitempty"`
	Message string    `json:"message"`
}
