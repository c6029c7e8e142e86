package search_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/bdpiprava/alertsearch/search"
)

func Test_IsTransient(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "connection error", err: &search.ConnectionError{Op: search.OpSearch, Err: context.DeadlineExceeded}, want: true},
		{name: "wrapped connection error", err: errors.Wrap(&search.ConnectionError{Op: search.OpSearch}, "top_agents"), want: true},
		{name: "backend 500", err: &search.BackendError{Op: search.OpListIndices, StatusCode: 500}, want: true},
		{name: "backend 503", err: &search.BackendError{Op: search.OpHealthCheck, StatusCode: 503}, want: true},
		{name: "backend 401", err: &search.BackendError{Op: search.OpListIndices, StatusCode: 401}, want: false},
		{name: "backend 404", err: &search.BackendError{Op: search.OpListIndices, StatusCode: 404}, want: false},
		{name: "query error", err: &search.QueryError{Op: search.OpSearch, StatusCode: 400}, want: false},
		{name: "ingest error", err: &search.IngestError{Op: search.OpIngest, StatusCode: 400}, want: false},
		{name: "validation error", err: search.NewValidationError(search.OpTopAgents, "limit", "must be positive"), want: false},
		{name: "index not found", err: &search.IndexNotFoundError{Op: search.OpOverview, Index: "wazuh-alerts"}, want: false},
		{name: "foreign error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, search.IsTransient(tc.err))
		})
	}
}

func Test_Errors_Messages(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "connection",
			err:  &search.ConnectionError{Op: search.OpHealthCheck, Endpoint: "http://localhost:7280", Err: errors.New("connection refused")},
			want: "health_check: backend unreachable at http://localhost:7280: connection refused",
		},
		{
			name: "backend",
			err:  &search.BackendError{Op: search.OpListIndices, StatusCode: 500, Body: "internal error"},
			want: "list_indices: backend returned status 500: internal error",
		},
		{
			name: "query",
			err:  &search.QueryError{Op: search.OpSearch, Index: "wazuh-alerts", StatusCode: 400, Body: "query parser error"},
			want: `search: backend rejected query on index "wazuh-alerts" (status 400): query parser error`,
		},
		{
			name: "ingest",
			err:  &search.IngestError{Op: search.OpIngest, Index: "wazuh-alerts", StatusCode: 413, Body: "payload too large"},
			want: `ingest: backend rejected write to index "wazuh-alerts" (status 413): payload too large`,
		},
		{
			name: "index not found",
			err:  &search.IndexNotFoundError{Op: search.OpOverview, Index: "wazuh-alerts"},
			want: `overview: index "wazuh-alerts" does not exist`,
		},
		{
			name: "validation",
			err:  search.NewValidationError(search.OpAlertsSummary, "time_range_hours", "must be positive, got %d", 0),
			want: "alerts_summary: invalid time_range_hours: must be positive, got 0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualError(t, tc.err, tc.want)
		})
	}
}

func Test_IsValidation(t *testing.T) {
	err := errors.Wrap(search.NewValidationError(search.OpTopAgents, "limit", "must be positive"), "dashboard")

	assert.True(t, search.IsValidation(err))
	assert.False(t, search.IsValidation(&search.QueryError{}))
}
