package maps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bdpiprava/alertsearch/maps"
)

type containsTestCases struct {
	name       string
	actual     map[string]any
	expected   map[string]any
	want       bool
	wantReason string
}

func Test_Contains(t *testing.T) {
	testCases := getContainsTestCases()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := maps.Contains(tc.actual, tc.expected)

			assert.Equal(t, tc.want, got)
		})
	}
}

func Test_ContainsWithReason(t *testing.T) {
	testCases := getContainsTestCases()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, gotReason := maps.ContainsWithReason(tc.actual, tc.expected)

			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantReason, gotReason)
		})
	}
}

func getContainsTestCases() []containsTestCases {
	return []containsTestCases{
		{
			name:       "actual is nil",
			actual:     nil,
			expected:   map[string]any{},
			want:       false,
			wantReason: "actual is nil",
		},
		{
			name:       "expected is nil",
			actual:     map[string]any{},
			expected:   nil,
			want:       true,
			wantReason: "",
		},
		{
			name:       "actual contains expected",
			actual:     map[string]any{"a": 1, "b": 2},
			expected:   map[string]any{"a": 1},
			want:       true,
			wantReason: "",
		},
		{
			name:       "actual does not contain expected",
			actual:     map[string]any{"a": 1, "b": 2},
			expected:   map[string]any{"a": 2},
			want:       false,
			wantReason: "Actual: map[a:1 b:2]\n\tExpected: map[a:2]\n\tHint: Value for key 'a' does not match expected value 'int(2)' but got 'int(1)'",
		},
		{
			name:       "actual contain expected but type mismatch",
			actual:     map[string]any{"a": float32(1), "b": 2},
			expected:   map[string]any{"a": int32(1)},
			want:       false,
			wantReason: "Actual: map[a:1 b:2]\n\tExpected: map[a:1]\n\tHint: Value for key 'a' does not match expected value 'int32(1)' but got 'float32(1)'",
		},
		{
			name:       "nested map contains expected",
			actual:     map[string]any{"a": map[string]any{"b": 1}},
			expected:   map[string]any{"a": map[string]any{"b": 1}},
			want:       true,
			wantReason: "",
		},
		{
			name:       "nested map does not contain expected",
			actual:     map[string]any{"a": map[string]any{"b": 1}},
			expected:   map[string]any{"a": map[string]any{"b": 2}},
			want:       false,
			wantReason: "For key 'a'\n\tActual: map[b:1]\n\tExpected: map[b:2]\n\tHint: Value for key 'b' does not match expected value 'int(2)' but got 'int(1)'",
		},
	}
}

func Test_Lookup(t *testing.T) {
	event := map[string]any{
		"agent":    map[string]any{"id": "001", "name": "test-agent-1"},
		"rule":     map[string]any{"level": float64(12), "description": nil},
		"full_log": "Critical: Multiple failed login attempts detected",
	}

	testCases := []struct {
		name   string
		actual map[string]any
		path   string
		want   any
		wantOK bool
	}{
		{name: "top level key", actual: event, path: "full_log", want: "Critical: Multiple failed login attempts detected", wantOK: true},
		{name: "nested key", actual: event, path: "agent.id", want: "001", wantOK: true},
		{name: "nested number", actual: event, path: "rule.level", want: float64(12), wantOK: true},
		{name: "explicit nil is absent", actual: event, path: "rule.description", wantOK: false},
		{name: "missing leaf", actual: event, path: "agent.ip", wantOK: false},
		{name: "missing branch", actual: event, path: "decoder.name", wantOK: false},
		{name: "walks through a scalar", actual: event, path: "full_log.size", wantOK: false},
		{name: "nil map", actual: nil, path: "agent.id", wantOK: false},
		{name: "empty path", actual: event, path: "", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := maps.Lookup(tc.actual, tc.path)

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func Test_Set(t *testing.T) {
	t.Run("creates intermediate maps", func(t *testing.T) {
		m := map[string]any{}

		err := maps.Set(m, "agent.id", "001")

		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"agent": map[string]any{"id": "001"}}, m)
	})

	t.Run("keeps sibling keys", func(t *testing.T) {
		m := map[string]any{"rule": map[string]any{"id": 5715}}

		err := maps.Set(m, "rule.level", 3)

		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"rule": map[string]any{"id": 5715, "level": 3}}, m)
	})

	t.Run("fails when a scalar is in the way", func(t *testing.T) {
		m := map[string]any{"rule": "5715"}

		err := maps.Set(m, "rule.level", 3)

		assert.EqualError(t, err, "cannot set 'rule.level', 'rule' holds a string")
	})

	t.Run("fails on nil map", func(t *testing.T) {
		assert.Error(t, maps.Set(nil, "rule.level", 3))
	})
}
