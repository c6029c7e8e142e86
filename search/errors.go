package search

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Operation names used in errors, logs and metrics
const (
	OpHealthCheck    = "health_check"
	OpListIndices    = "list_indices"
	OpIngest         = "ingest"
	OpSearch         = "search"
	OpCount          = "count"
	OpAlertsSummary  = "alerts_summary"
	OpTopAgents      = "top_agents"
	OpTopRules       = "top_rules"
	OpCriticalAlerts = "critical_alerts"
	OpOverview       = "overview"
)

const maxBodyInMessage = 512

// ConnectionError reports that the backend could not be reached or did not answer in time.
// It is always safe to retry.
type ConnectionError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: backend unreachable at %s: %v", e.Op, e.Endpoint, e.Err)
}

// Unwrap returns the transport failure
func (e *ConnectionError) Unwrap() error { return e.Err }

// Transient always reports true
func (e *ConnectionError) Transient() bool { return true }

// BackendError reports an unexpected answer from a reachable backend
type BackendError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected backend response (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, truncate(e.Body))
}

// Unwrap returns the decoding failure, if any
func (e *BackendError) Unwrap() error { return e.Err }

// Transient reports false when the status blames the request (4xx)
func (e *BackendError) Transient() bool {
	return !isClientStatus(e.StatusCode)
}

// QueryError reports a query or query parameter the backend refused to run
type QueryError struct {
	Op         string
	Index      string
	StatusCode int
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: backend rejected query on index %q (status %d): %s", e.Op, e.Index, e.StatusCode, truncate(e.Body))
}

// Transient always reports false
func (e *QueryError) Transient() bool { return false }

// IngestError reports a write the backend rejected
type IngestError struct {
	Op         string
	Index      string
	StatusCode int
	Body       string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: backend rejected write to index %q (status %d): %s", e.Op, e.Index, e.StatusCode, truncate(e.Body))
}

// Transient always reports false
func (e *IngestError) Transient() bool { return false }

// IndexNotFoundError reports that the backend does not know the index an operation reads
type IndexNotFoundError struct {
	Op    string
	Index string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("%s: index %q does not exist", e.Op, e.Index)
}

// Transient always reports false
func (e *IndexNotFoundError) Transient() bool { return false }

// ValidationError reports an argument outside of the operation contract. It is raised before any request is sent.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Reason)
}

// Transient always reports false
func (e *ValidationError) Transient() bool { return false }

// NewValidationError returns a validation error for the given operation and argument
func NewValidationError(op, field, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsTransient reports whether the failure may succeed when the same call is repeated later.
// Errors outside of this package's taxonomy are treated as permanent.
func IsTransient(err error) bool {
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func isClientStatus(status int) bool {
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}

func truncate(body string) string {
	if len(body) <= maxBodyInMessage {
		return body
	}
	return body[:maxBodyInMessage] + "..."
}
