package maps

import (
	"fmt"
	"reflect"
	"strings"
)

const pathSeparator = "."

const (
	expectedKeyInActualButNotPresent = "Actual: %+v\n\tExpected: %+v\n\tHint: Key '%s' is not present in actual map"
	expectedValueMismatch            = "Actual: %+v\n\tExpected: %+v\n\tHint: Value for key '%s' does not match expected value '%T(%v)' but got '%T(%v)'"
)

// Contains checks if map is subset of another map
//
//	s.AssertMapContains({"x": 1, "y": 2}, {"x": 1}) 										- TRUE
//	s.AssertMapContains({"x": 1, "y": 2}, {"x": 1, "y": 2}) 								- TRUE
//	s.AssertMapContains({"x": 1, "y": 2}, {"x": 2}) 										- FALSE
//	s.AssertMapContains({"x": 1, "y": {"a":"1", "b":"2"}}, {"x": 2, "y": {"a":"1"}}) 		- TRUE
func Contains(actual, expectedSubSet map[string]any) bool {
	if expectedSubSet == nil {
		return true
	}

	if actual == nil {
		return false
	}

	for k, smValue := range expectedSubSet {
		bValue, ok := actual[k]
		if !ok {
			return false
		}

		if smMap, ok := smValue.(map[string]any); ok {
			bMap, ok := bValue.(map[string]any)
			if !ok {
				return false
			}

			if !Contains(bMap, smMap) {
				return false
			}
			continue
		}

		if !reflect.DeepEqual(bValue, smValue) {
			return false
		}
	}

	return true
}

// ContainsWithReason checks if map is subset of another map
//
//	s.AssertMapContains({"x": 1, "y": 2}, {"x": 1}) 										- TRUE
//	s.AssertMapContains({"x": 1, "y": 2}, {"x": 1, "y": 2}) 								- TRUE
//	s.AssertMapContains({"x": 1, "y": 2}, {"x": 2}) 										- FALSE
//	s.AssertMapContains({"x": 1, "y": {"a":"1", "b":"2"}}, {"x": 2, "y": {"a":"1"}}) 		- TRUE
func ContainsWithReason(big, small map[string]any) (bool, string) {
	if small == nil {
		return true, ""
	}

	if big == nil {
		return false, "actual is nil"
	}

	for k, smValue := range small {
		bValue, ok := big[k]
		if !ok {
			return false, fmt.Sprintf(expectedKeyInActualButNotPresent, big, small, k)
		}

		if smMap, ok := smValue.(map[string]any); ok {
			bMap, ok := bValue.(map[string]any)
			if !ok {
				return false, fmt.Sprintf("For key '%s', expected value of type 'map' but got '%T'", k, bValue)
			}

			result, reason := ContainsWithReason(bMap, smMap)
			if !result {
				return false, fmt.Sprintf("For key '%s'\n\t%s", k, reason)
			}
			continue
		}

		if !reflect.DeepEqual(bValue, smValue) {
			return false, fmt.Sprintf(expectedValueMismatch, big, small, k, smValue, smValue, bValue, bValue)
		}
	}
	return true, ""
}

// Lookup walks the nested map along a dotted path and reports whether a value is present at that path.
// A key that holds an explicit nil is reported as absent.
//
//	Lookup({"rule": {"level": 12}}, "rule.level")	- 12, true
//	Lookup({"rule": {"level": 12}}, "rule.id")		- nil, false
//	Lookup({"rule": "12"}, "rule.level")			- nil, false
func Lookup(m map[string]any, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}

	var current any = m
	for _, key := range strings.Split(path, pathSeparator) {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = node[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// Set writes the value at the dotted path, creating intermediate maps when missing.
// It returns an error if a non-map value is in the way.
func Set(m map[string]any, path string, value any) error {
	if m == nil {
		return fmt.Errorf("cannot set '%s' on a nil map", path)
	}

	keys := strings.Split(path, pathSeparator)
	node := m
	for i, key := range keys[:len(keys)-1] {
		next, ok := node[key]
		if !ok || next == nil {
			child := make(map[string]any)
			node[key] = child
			node = child
			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set '%s', '%s' holds a %T", path, strings.Join(keys[:i+1], pathSeparator), next)
		}
		node = child
	}

	node[keys[len(keys)-1]] = value
	return nil
}
