package constants

import "math"

const (
	// TargetMs is the elapsed time a player is trying to hit, in milliseconds.
	TargetMs = 10000

	// SentinelBest marks a game that has no recorded score yet.
	SentinelBest = uint64(math.MaxUint64)

	// FallbackName is recorded for a first leaderboard entry submitted
	// without a nickname.
	FallbackName = "player"
)
