package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/ledgergames/splitsecond/pkg/api/middleware"
	"github.com/ledgergames/splitsecond/pkg/game"
	"github.com/ledgergames/splitsecond/pkg/game/constants"
	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/messages"
	"github.com/ledgergames/splitsecond/pkg/workers"
)

// HandleSubmitTransaction executes one entry point against the ledger.
// The response body is always the finalized transaction record; the
// status code distinguishes the failure taxonomy so clients can branch
// without parsing error strings.
func HandleSubmitTransaction(l *ledger.Ledger, saveObjectCh chan<- workers.SaveObjectRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sender, ok := middleware.Sender(r)
		if !ok {
			log.Error("failed to get sender from context")
			http.Error(w, "Failed to get sender from context", http.StatusInternalServerError)
			return
		}

		var req messages.SubmitTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		record, err := l.Submit(&ledger.Transaction{
			Kind:          ledger.TransactionKind(req.Kind),
			Sender:        sender,
			GameID:        req.GameID,
			LeaderboardID: req.LeaderboardID,
			Name:          req.Name,
		})
		if err != nil {
			writeJSON(w, statusForSubmitError(err), record)
			return
		}

		for _, change := range record.ObjectChanges {
			select {
			case saveObjectCh <- workers.SaveObjectRequest{
				Timestamp: record.TimestampMs,
				ObjectID:  change.ObjectID,
			}:
			default:
				log.Warn("Save channel full, object %s will be saved by the periodic snapshot", change.ObjectID)
			}
		}

		writeJSON(w, http.StatusOK, record)
	}
}

func statusForSubmitError(err error) int {
	switch {
	case ledger.IsObjectNotFound(err):
		return http.StatusNotFound
	case ledger.IsUnauthorized(err):
		return http.StatusForbidden
	case ledger.IsWrongObjectType(err):
		return http.StatusBadRequest
	case game.IsAlreadyStarted(err), game.IsNotStarted(err):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// HandleGetTransaction returns a finalized transaction record by digest.
func HandleGetTransaction(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		digest := mux.Vars(r)["digest"]
		record, err := l.GetTransaction(digest)
		if err != nil {
			if ledger.IsTransactionNotFound(err) {
				http.Error(w, "Transaction not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get transaction %s: %v", digest, err)
			http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

// HandleGetObject returns the loosely-typed read form of an object.
func HandleGetObject(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objectID := mux.Vars(r)["objectID"]
		raw, err := l.GetObject(objectID)
		if err != nil {
			if ledger.IsObjectNotFound(err) {
				http.Error(w, "Object not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get object %s: %v", objectID, err)
			http.Error(w, "Failed to get object", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, raw)
	}
}

// HandleGetOwnedObjects returns the objects owned by an address,
// optionally filtered by the type query parameter.
func HandleGetOwnedObjects(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := mux.Vars(r)["owner"]
		typeTag := r.URL.Query().Get("type")
		raws := l.GetOwnedObjects(owner, typeTag)
		if raws == nil {
			raws = []*ledger.RawObject{}
		}
		writeJSON(w, http.StatusOK, raws)
	}
}

// HandleGetLeaderboardTop returns the sorted top-N projection of a
// leaderboard. This is a read-time view; the stored entry order is
// untouched.
func HandleGetLeaderboardTop(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardID := mux.Vars(r)["boardID"]
		n := 10
		if v := r.URL.Query().Get("n"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 {
				http.Error(w, "Invalid n", http.StatusBadRequest)
				return
			}
			n = parsed
		}

		raw, err := l.GetObject(boardID)
		if err != nil {
			if ledger.IsObjectNotFound(err) {
				http.Error(w, "Leaderboard not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get leaderboard %s: %v", boardID, err)
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			return
		}
		if raw.Type != ledger.TypeTagLeaderboard {
			http.Error(w, "Object is not a leaderboard", http.StatusBadRequest)
			return
		}

		entries := parseBoardEntries(raw)
		writeJSON(w, http.StatusOK, game.TopEntries(entries, n))
	}
}

// parseBoardEntries converts the raw read form back into typed entries,
// skipping anything malformed.
func parseBoardEntries(raw *ledger.RawObject) []gametypes.Entry {
	items, ok := raw.Content["entries"].([]interface{})
	if !ok {
		return nil
	}
	var entries []gametypes.Entry
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		player, ok := fields["player"].(string)
		if !ok || player == "" {
			continue
		}
		diffStr, ok := fields["best_diff_ms"].(string)
		if !ok {
			continue
		}
		diff, err := strconv.ParseUint(diffStr, 10, 64)
		if err != nil {
			continue
		}
		name := decodeNameBytes(fields["name"])
		entries = append(entries, gametypes.Entry{
			Player:     player,
			BestDiffMs: diff,
			Name:       name,
		})
	}
	return entries
}

// decodeNameBytes decodes a rendered name byte array. Malformed or
// empty names fall back to the same placeholder the write path uses.
func decodeNameBytes(v interface{}) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	items, ok := v.([]interface{})
	if !ok {
		return constants.FallbackName
	}
	b := make([]byte, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case int:
			if n < 0 || n > 255 {
				return constants.FallbackName
			}
			b = append(b, byte(n))
		case float64:
			if n < 0 || n > 255 {
				return constants.FallbackName
			}
			b = append(b, byte(int(n)))
		default:
			return constants.FallbackName
		}
	}
	if len(b) == 0 {
		return constants.FallbackName
	}
	return string(b)
}

// HandleHealth reports process liveness.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
