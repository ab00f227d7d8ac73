package handlers

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/ledgergames/splitsecond/pkg/api/middleware"
	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/clock"
	"github.com/ledgergames/splitsecond/pkg/game/constants"
	gametypes "github.com/ledgergames/splitsecond/pkg/game/types"
	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/messages"
	"github.com/ledgergames/splitsecond/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, seed byte) *auth.Wallet {
	t.Helper()
	return auth.NewWallet(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize)))
}

func newTestRouter(t *testing.T, c clock.Clock) (*mux.Router, *ledger.Ledger, chan workers.SaveObjectRequest) {
	t.Helper()
	l := ledger.NewLedger(ledger.NewLedgerOptions{Clock: c})
	saveObjectCh := make(chan workers.SaveObjectRequest, 16)
	walletMiddleware := middleware.NewWalletMiddleware(auth.NewVerifier())

	router := mux.NewRouter()
	router.Handle("/transactions", walletMiddleware(HandleSubmitTransaction(l, saveObjectCh))).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{digest}", HandleGetTransaction(l)).Methods(http.MethodGet)
	router.HandleFunc("/objects/{objectID}", HandleGetObject(l)).Methods(http.MethodGet)
	router.HandleFunc("/owners/{owner}/objects", HandleGetOwnedObjects(l)).Methods(http.MethodGet)
	router.HandleFunc("/leaderboards/{boardID}/top", HandleGetLeaderboardTop(l)).Methods(http.MethodGet)
	return router, l, saveObjectCh
}

func submit(t *testing.T, router *mux.Router, wallet *auth.Wallet, req *messages.SubmitTransactionRequest) (*httptest.ResponseRecorder, *ledger.TransactionRecord) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	token, err := wallet.SignToken()
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	httpReq.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)

	record := &ledger.TransactionRecord{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), record))
	return w, record
}

func TestSubmitTransaction_RequiresWalletToken(t *testing.T) {
	router, _, _ := newTestRouter(t, clock.NewManualClock(0))

	httpReq := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader([]byte(`{"kind":"create_game"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitTransaction_SenderComesFromToken(t *testing.T) {
	router, _, saveObjectCh := newTestRouter(t, clock.NewManualClock(0))
	wallet := newTestWallet(t, 1)

	w, record := submit(t, router, wallet, &messages.SubmitTransactionRequest{Kind: "create_game"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, wallet.Address(), record.Sender)
	require.Len(t, record.ObjectChanges, 1)
	assert.Equal(t, wallet.Address(), record.ObjectChanges[0].Owner)

	// the handler asked for the new object to be persisted
	select {
	case saveRequest := <-saveObjectCh:
		assert.Equal(t, record.ObjectChanges[0].ObjectID, saveRequest.ObjectID)
	default:
		t.Fatal("expected a save request")
	}
}

func TestSubmitTransaction_StatusCodes(t *testing.T) {
	c := clock.NewManualClock(0)
	router, _, _ := newTestRouter(t, c)
	owner := newTestWallet(t, 1)
	stranger := newTestWallet(t, 2)

	_, record := submit(t, router, owner, &messages.SubmitTransactionRequest{Kind: "create_game"})
	gameID := record.ObjectChanges[0].ObjectID

	tests := []struct {
		name     string
		wallet   *auth.Wallet
		req      *messages.SubmitTransactionRequest
		wantCode int
	}{
		{
			name:     "unknown game id",
			wallet:   owner,
			req:      &messages.SubmitTransactionRequest{Kind: "start", GameID: "missing"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "not the owner",
			wallet:   stranger,
			req:      &messages.SubmitTransactionRequest{Kind: "start", GameID: gameID},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "stop with unknown leaderboard",
			wallet:   owner,
			req:      &messages.SubmitTransactionRequest{Kind: "stop", GameID: gameID, LeaderboardID: "whatever"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "start",
			wallet:   owner,
			req:      &messages.SubmitTransactionRequest{Kind: "start", GameID: gameID},
			wantCode: http.StatusOK,
		},
		{
			name:     "double start",
			wallet:   owner,
			req:      &messages.SubmitTransactionRequest{Kind: "start", GameID: gameID},
			wantCode: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := submit(t, router, tt.wallet, tt.req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestGetObject_And_LeaderboardTop(t *testing.T) {
	c := clock.NewManualClock(0)
	router, _, _ := newTestRouter(t, c)
	wallet := newTestWallet(t, 1)

	_, record := submit(t, router, wallet, &messages.SubmitTransactionRequest{Kind: "create_leaderboard"})
	boardID := record.ObjectChanges[0].ObjectID
	_, record = submit(t, router, wallet, &messages.SubmitTransactionRequest{Kind: "create_game"})
	gameID := record.ObjectChanges[0].ObjectID

	w, _ := submit(t, router, wallet, &messages.SubmitTransactionRequest{Kind: "start", GameID: gameID})
	require.Equal(t, http.StatusOK, w.Code)
	c.SetMs(10020)
	w, _ = submit(t, router, wallet, &messages.SubmitTransactionRequest{
		Kind:          "stop",
		GameID:        gameID,
		LeaderboardID: boardID,
		Name:          "tester",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// object read path renders u64 fields as strings
	getReq := httptest.NewRequest(http.MethodGet, "/objects/"+gameID, nil)
	getW := httptest.NewRecorder()
	router.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)
	raw := &ledger.RawObject{}
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), raw))
	assert.Equal(t, "20", raw.Content["best_diff_ms"])

	// top projection is typed and sorted
	topReq := httptest.NewRequest(http.MethodGet, "/leaderboards/"+boardID+"/top?n=5", nil)
	topW := httptest.NewRecorder()
	router.ServeHTTP(topW, topReq)
	require.Equal(t, http.StatusOK, topW.Code)
	var top []gametypes.Entry
	require.NoError(t, json.Unmarshal(topW.Body.Bytes(), &top))
	require.Len(t, top, 1)
	assert.Equal(t, uint64(20), top[0].BestDiffMs)
	assert.Equal(t, "tester", top[0].Name)

	// missing objects are 404s
	missingReq := httptest.NewRequest(http.MethodGet, "/objects/missing", nil)
	missingW := httptest.NewRecorder()
	router.ServeHTTP(missingW, missingReq)
	assert.Equal(t, http.StatusNotFound, missingW.Code)
}

func TestParseBoardEntries_BadNameFallsBack(t *testing.T) {
	raw := &ledger.RawObject{
		Type: ledger.TypeTagLeaderboard,
		Content: map[string]interface{}{
			"entries": []interface{}{
				map[string]interface{}{"player": "0xaaa", "best_diff_ms": "20", "name": true},
				map[string]interface{}{"player": "0xbbb", "best_diff_ms": "30", "name": []interface{}{}},
				map[string]interface{}{"player": "0xccc", "best_diff_ms": "40", "name": []interface{}{float64(999999)}},
			},
		},
	}

	entries := parseBoardEntries(raw)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, constants.FallbackName, entry.Name)
	}
}

func TestGetOwnedObjects_FiltersByOwnerAndType(t *testing.T) {
	router, _, _ := newTestRouter(t, clock.NewManualClock(0))
	wallet := newTestWallet(t, 1)

	_, record := submit(t, router, wallet, &messages.SubmitTransactionRequest{Kind: "create_game"})
	gameID := record.ObjectChanges[0].ObjectID
	submit(t, router, wallet, &messages.SubmitTransactionRequest{Kind: "create_leaderboard"})

	req := httptest.NewRequest(http.MethodGet, "/owners/"+wallet.Address()+"/objects?type="+ledger.TypeTagGame, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var raws []ledger.RawObject
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raws))
	require.Len(t, raws, 1)
	assert.Equal(t, gameID, raws[0].ObjectID)
}
