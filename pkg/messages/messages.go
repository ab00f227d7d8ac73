package messages

import "encoding/json"

// Message types for the event stream.
const (
	MessageTypeResultEvent = "result"
)

// Message is the envelope for event stream messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubmitTransactionRequest is the body of a transaction submission.
// The sender is never part of the body; it comes from the verified
// wallet token.
type SubmitTransactionRequest struct {
	Kind          string `json:"kind"`
	GameID        string `json:"gameId,omitempty"`
	LeaderboardID string `json:"leaderboardId,omitempty"`
	Name          string `json:"name,omitempty"`
}
