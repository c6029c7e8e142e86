package dashboard

import (
	"sort"

	"github.com/bdpiprava/alertsearch/search"
)

// ranked is one group of hits sharing a key
type ranked struct {
	key   string
	count int
	first search.Event
}

// rank groups the hits by key and returns the limit largest groups, largest first.
// Groups of equal size keep the order in which their key was first seen.
// Hits without a key are not ranked, skipped is their number.
func rank(hits []search.Event, limit int, keyOf func(search.Event) (string, bool)) (groups []ranked, skipped int) {
	groups = make([]ranked, 0)
	positions := make(map[string]int)

	for _, hit := range hits {
		key, ok := keyOf(hit)
		if !ok {
			skipped++
			continue
		}

		if pos, seen := positions[key]; seen {
			groups[pos].count++
			continue
		}

		positions[key] = len(groups)
		groups = append(groups, ranked{key: key, count: 1, first: hit})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, skipped
}
