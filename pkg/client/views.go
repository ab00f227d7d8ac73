package client

import "sort"

// TopCount is the number of leaderboard rows shown by default.
const TopCount = 10

// TopEntries sorts entries ascending by timing error and keeps the
// first n. Sorting happens on a copy: the fetched entry order mirrors
// the authoritative insertion order and is never mutated in place.
func TopEntries(entries []BoardEntry, n int) []BoardEntry {
	sorted := make([]BoardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BestDiffMs < sorted[j].BestDiffMs
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
