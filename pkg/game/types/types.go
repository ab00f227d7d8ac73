package types

import "github.com/ledgergames/splitsecond/pkg/game/constants"

// Game is one player's timing game. Exactly one exists per player and
// only its owner may mutate it.
type Game struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	// BestDiffMs is the smallest timing error ever recorded for this game.
	// constants.SentinelBest means no score has been recorded yet.
	BestDiffMs uint64 `json:"bestDiffMs"`
	// ActiveStart is the start timestamp of a running attempt.
	// nil means the timer is idle.
	ActiveStart *int64 `json:"activeStart,omitempty"`
}

func NewGame(id, owner string) *Game {
	return &Game{
		ID:         id,
		Owner:      owner,
		BestDiffMs: constants.SentinelBest,
	}
}

// Running reports whether an attempt is in progress.
func (g *Game) Running() bool {
	return g.ActiveStart != nil
}

// Entry is a single player's best-score record. It only exists embedded
// in a Leaderboard's entry list.
type Entry struct {
	Player     string `json:"player"`
	BestDiffMs uint64 `json:"bestDiffMs"`
	Name       string `json:"name"`
}

// Leaderboard is the shared score table. Entries are kept in insertion
// order with at most one entry per player.
type Leaderboard struct {
	ID      string  `json:"id"`
	Entries []Entry `json:"entries"`
}

func NewLeaderboard(id string) *Leaderboard {
	return &Leaderboard{ID: id}
}

// ResultEvent is emitted after every completed attempt. It is transient:
// consumers must be listening when it is emitted.
type ResultEvent struct {
	Player    string `json:"player"`
	DiffMs    uint64 `json:"diffMs"`
	NewBestMs uint64 `json:"newBestMs"`
}
