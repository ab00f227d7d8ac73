package game

import (
	"sort"

	"github.com/ledgergames/splitsecond/pkg/game/types"
)

// TopEntries returns the n best entries sorted ascending by timing
// error. It is a read-time projection: the input slice is never
// reordered, since the authoritative leaderboard keeps insertion order.
func TopEntries(entries []types.Entry, n int) []types.Entry {
	sorted := make([]types.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BestDiffMs < sorted[j].BestDiffMs
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
