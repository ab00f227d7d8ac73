package ledger

import (
	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
)

// Type tags identify what kind of object an id refers to. They appear in
// object reads and in transaction object-change lists, and clients match
// on them to discover newly created objects.
const (
	TypeTagGame        = "splitsecond::challenge::Game"
	TypeTagLeaderboard = "splitsecond::challenge::Leaderboard"
)

// TransactionKind names an entry point of the game state module.
type TransactionKind string

const (
	TxCreateLeaderboard TransactionKind = "create_leaderboard"
	TxCreateGame        TransactionKind = "create_game"
	TxStart             TransactionKind = "start"
	TxStop              TransactionKind = "stop"
	TxResetBest         TransactionKind = "reset_best"
)

// Transaction is a signed request to execute one entry point. Sender is
// taken from the verified wallet token, never from the request body.
type Transaction struct {
	Kind          TransactionKind `json:"kind"`
	Sender        string          `json:"sender"`
	GameID        string          `json:"gameId,omitempty"`
	LeaderboardID string          `json:"leaderboardId,omitempty"`
	Name          string          `json:"name,omitempty"`
}

// Transaction statuses.
const (
	TxStatusSuccess = "success"
	TxStatusFailure = "failure"
)

// Object change kinds.
const (
	ChangeCreated = "created"
	ChangeMutated = "mutated"
)

// ObjectChange describes one object touched by a transaction.
type ObjectChange struct {
	Kind       string `json:"kind"`
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
	Owner      string `json:"owner,omitempty"`
	Shared     bool   `json:"shared,omitempty"`
}

// TransactionRecord is the finalized result of a submitted transaction.
type TransactionRecord struct {
	Digest        string                  `json:"digest"`
	Kind          TransactionKind         `json:"kind"`
	Sender        string                  `json:"sender"`
	Status        string                  `json:"status"`
	Error         string                  `json:"error,omitempty"`
	TimestampMs   int64                   `json:"timestampMs"`
	ObjectChanges []ObjectChange          `json:"objectChanges"`
	Events        []gametypes.ResultEvent `json:"events,omitempty"`
}

// RawObject is the loosely-typed read form of an object, the only shape
// the read path exposes. Numeric u64 fields are rendered as decimal
// strings and names as byte arrays; clients are expected to parse
// defensively.
type RawObject struct {
	ObjectID string                 `json:"objectId"`
	Version  uint64                 `json:"version"`
	Type     string                 `json:"type"`
	Owner    string                 `json:"owner,omitempty"`
	Shared   bool                   `json:"shared"`
	Content  map[string]interface{} `json:"content"`
}
