package game

import (
	"github.com/ledgergames/splitsecond/pkg/clock"
	"github.com/ledgergames/splitsecond/pkg/game/constants"
	"github.com/ledgergames/splitsecond/pkg/game/types"
)

// ErrAlreadyStarted is returned by Start when an attempt is in progress.
type ErrAlreadyStarted struct{}

func (e *ErrAlreadyStarted) Error() string {
	return "timer already started"
}

func IsAlreadyStarted(err error) bool {
	_, ok := err.(*ErrAlreadyStarted)
	return ok
}

// ErrNotStarted is returned by Stop when no attempt is in progress.
type ErrNotStarted struct{}

func (e *ErrNotStarted) Error() string {
	return "timer not started"
}

func IsNotStarted(err error) bool {
	_, ok := err.(*ErrNotStarted)
	return ok
}

// Start begins an attempt. The game must be idle. On failure nothing
// is mutated.
func Start(g *types.Game, c clock.Clock) error {
	if g.Running() {
		return &ErrAlreadyStarted{}
	}
	now := c.NowMs()
	g.ActiveStart = &now
	return nil
}

// Stop ends a running attempt. It scores the attempt against the
// 10-second target, folds the result into the game's personal best and
// the shared leaderboard, clears the timer, and returns the result
// event to emit. On a precondition failure neither the game nor the
// leaderboard is mutated.
func Stop(g *types.Game, board *types.Leaderboard, c clock.Clock, name string) (*types.ResultEvent, error) {
	if !g.Running() {
		return nil, &ErrNotStarted{}
	}

	elapsed := c.NowMs() - *g.ActiveStart
	diff := absDiff(elapsed, constants.TargetMs)

	if diff < g.BestDiffMs {
		g.BestDiffMs = diff
	}
	updateLeaderboard(board, g.Owner, diff, name)
	g.ActiveStart = nil

	return &types.ResultEvent{
		Player:    g.Owner,
		DiffMs:    diff,
		NewBestMs: g.BestDiffMs,
	}, nil
}

// ResetBest unconditionally returns the game to idle with no recorded
// score. Intended for repeatable demonstrations.
func ResetBest(g *types.Game) {
	g.BestDiffMs = constants.SentinelBest
	g.ActiveStart = nil
}

// updateLeaderboard applies an attempt's score to the shared board.
// One entry per player: an existing entry is improved in place (first
// match wins), otherwise a new entry is appended. An empty name never
// overwrites a previously recorded one.
//
// The scan is linear on purpose. The board is bounded by the number of
// distinct players who ever played; at larger scale this is a known
// bottleneck, not something to quietly optimize away.
func updateLeaderboard(board *types.Leaderboard, player string, diff uint64, name string) {
	for i := range board.Entries {
		if board.Entries[i].Player != player {
			continue
		}
		if diff < board.Entries[i].BestDiffMs {
			board.Entries[i].BestDiffMs = diff
		}
		if name != "" {
			board.Entries[i].Name = name
		}
		return
	}

	if name == "" {
		name = constants.FallbackName
	}
	board.Entries = append(board.Entries, types.Entry{
		Player:     player,
		BestDiffMs: diff,
		Name:       name,
	})
}

func absDiff(elapsed, target int64) uint64 {
	if elapsed < target {
		return uint64(target - elapsed)
	}
	return uint64(elapsed - target)
}
