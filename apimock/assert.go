package apimock

import (
	"encoding/json"

	"github.com/bdpiprava/alertsearch/maps"
	"github.com/bdpiprava/alertsearch/search"
)

// AssertEventContains checks that every field of subset is present in the event with the same value
//
//	s.AssertEventContains(event, search.Event{"agent": map[string]any{"id": "001"}})			- Pass
//	s.AssertEventContains(event, search.Event{"rule": map[string]any{"level": 12}})			- Pass when rule.level is 12
//	s.AssertEventContains(event, search.Event{"rule": map[string]any{"level": 12, "x": 1}})	- Fail, x is missing
//
// Both sides are compared in their JSON form, so 12 and 12.0 are equal.
func (s *Suite) AssertEventContains(event, subset search.Event) bool {
	ok, reason := maps.ContainsWithReason(s.normalize(event), s.normalize(subset))
	if !ok {
		return s.Fail("Event does not contain subset:\n\t" + reason)
	}
	return true
}

func (s *Suite) normalize(event search.Event) map[string]any {
	if event == nil {
		return nil
	}

	data, err := json.Marshal(event)
	s.Require().NoError(err)

	var normalized map[string]any
	s.Require().NoError(json.Unmarshal(data, &normalized))
	return normalized
}
