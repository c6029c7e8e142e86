package search

import (
	"math"
	"strings"
	"time"
)

// MatchAll is the query expression matching every document of an index
const MatchAll = "*"

// CommitMode controls when ingested documents become searchable
type CommitMode string

const (
	// CommitAuto lets the backend publish documents on its own schedule
	CommitAuto CommitMode = "auto"
	// CommitWaitFor blocks the write until the next scheduled commit
	CommitWaitFor CommitMode = "wait_for"
	// CommitForce commits right away so the documents are searchable once the write returns
	CommitForce CommitMode = "force"
)

// Valid reports whether the mode is one the backend understands
func (m CommitMode) Valid() bool {
	switch m {
	case CommitAuto, CommitWaitFor, CommitForce:
		return true
	}
	return false
}

// MaxRangeHours is the longest window LastHours can represent
const MaxRangeHours = int(math.MaxInt64 / int64(time.Hour))

// TimeRange bounds a query on the event timestamp, both ends inclusive
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// LastHours returns the range [now - hours, now].
// hours must not exceed MaxRangeHours, see ValidateHours.
func LastHours(now time.Time, hours int) TimeRange {
	return TimeRange{
		Start: now.Add(-time.Duration(hours) * time.Hour),
		End:   now,
	}
}

// ValidateHours checks that hours is a window LastHours can represent
func ValidateHours(op, field string, hours int) error {
	if hours <= 0 {
		return NewValidationError(op, field, "must be positive, got %d", hours)
	}
	if hours > MaxRangeHours {
		return NewValidationError(op, field, "must be at most %d, got %d", MaxRangeHours, hours)
	}
	return nil
}

// Validate checks that the range is not inverted
func (r TimeRange) Validate(op string) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return NewValidationError(op, "time range", "start and end are required")
	}
	if r.Start.After(r.End) {
		return NewValidationError(op, "time range", "start %s is after end %s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// StartTimestamp returns the inclusive lower bound in unix seconds
func (r TimeRange) StartTimestamp() int64 {
	return r.Start.Unix()
}

// EndTimestamp returns the exclusive upper bound in unix seconds.
// The whole second containing End is included.
func (r TimeRange) EndTimestamp() int64 {
	return r.End.Unix() + 1
}

// Query describes a single search request against one index
type Query struct {
	Index       string
	Expression  string
	MaxHits     int
	StartOffset int
	SortBy      string
	TimeRange   *TimeRange
	// Timeout bounds this request only, zero keeps the client timeout
	Timeout time.Duration
}

// NewQuery returns a query over index without time bounds
func NewQuery(index, expression string, maxHits int) Query {
	return Query{
		Index:      index,
		Expression: expression,
		MaxHits:    maxHits,
	}
}

// Within returns a copy of the query restricted to the time range
func (q Query) Within(r TimeRange) Query {
	q.TimeRange = &r
	return q
}

// Validate checks the query, including the hit limit
func (q Query) Validate(op string) error {
	if q.MaxHits <= 0 {
		return NewValidationError(op, "max_hits", "must be positive, got %d", q.MaxHits)
	}
	return q.ValidateScope(op)
}

// ValidateScope checks everything but the hit limit, as used by count requests
func (q Query) ValidateScope(op string) error {
	if strings.TrimSpace(q.Index) == "" {
		return NewValidationError(op, "index", "must not be empty")
	}
	if strings.TrimSpace(q.Expression) == "" {
		return NewValidationError(op, "query", "must not be empty, use %q to match all", MatchAll)
	}
	if q.StartOffset < 0 {
		return NewValidationError(op, "start_offset", "must not be negative, got %d", q.StartOffset)
	}
	if q.Timeout < 0 {
		return NewValidationError(op, "timeout", "must not be negative, got %s", q.Timeout)
	}
	if q.TimeRange != nil {
		return q.TimeRange.Validate(op)
	}
	return nil
}
