package client

import (
	"encoding/json"
	"strconv"

	"github.com/ledgergames/splitsecond/pkg/game/constants"
)

// rawObject is the client's view of the loosely-typed object read form.
// Content fields stay raw until parsed defensively per field.
type rawObject struct {
	ObjectID string                     `json:"objectId"`
	Version  uint64                     `json:"version"`
	Type     string                     `json:"type"`
	Owner    string                     `json:"owner"`
	Shared   bool                       `json:"shared"`
	Content  map[string]json.RawMessage `json:"content"`
}

// parseU64 parses a u64 field that may arrive as a decimal string or a
// number. Missing or malformed values yield nil, never an error: one
// bad field must not take down the whole view.
func parseU64(raw json.RawMessage) *uint64 {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil
		}
		return &v
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	return nil
}

// parseI64 is parseU64 for signed timestamp fields.
func parseI64(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return &v
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	return nil
}

// decodeName decodes a name byte array. Decode failures yield the
// fallback placeholder rather than an error.
func decodeName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return constants.FallbackName
	}
	var nums []int
	if err := json.Unmarshal(raw, &nums); err != nil {
		// some ledgers render names as plain strings
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		return constants.FallbackName
	}
	b := make([]byte, 0, len(nums))
	for _, n := range nums {
		if n < 0 || n > 255 {
			return constants.FallbackName
		}
		b = append(b, byte(n))
	}
	if len(b) == 0 {
		return constants.FallbackName
	}
	return string(b)
}

// parseGameState projects a raw Game object into the client's mirror
// state. Unparsable fields default to nil.
func parseGameState(raw *rawObject) *GameState {
	return &GameState{
		GameID:        raw.ObjectID,
		BestDiffMs:    parseU64(raw.Content["best_diff_ms"]),
		ActiveStartMs: parseI64(raw.Content["active_start_ms"]),
	}
}

// parseBoardEntries projects raw leaderboard content into entries,
// skipping anything malformed rather than failing the whole fetch.
func parseBoardEntries(raw *rawObject) []BoardEntry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw.Content["entries"], &items); err != nil {
		return nil
	}
	var entries []BoardEntry
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		var player string
		if err := json.Unmarshal(fields["player"], &player); err != nil || player == "" {
			continue
		}
		diff := parseU64(fields["best_diff_ms"])
		if diff == nil {
			continue
		}
		entries = append(entries, BoardEntry{
			Player:     player,
			BestDiffMs: *diff,
			Name:       decodeName(fields["name"]),
		})
	}
	return entries
}
