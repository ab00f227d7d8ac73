package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/ledgergames/splitsecond/pkg/api/handlers"
	"github.com/ledgergames/splitsecond/pkg/api/middleware"
	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/client/idstore"
	"github.com/ledgergames/splitsecond/pkg/clock"
	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	l := ledger.NewLedger(ledger.NewLedgerOptions{Clock: clock.NewManualClock(0)})
	walletMiddleware := middleware.NewWalletMiddleware(auth.NewVerifier())
	saveObjectCh := make(chan workers.SaveObjectRequest, 16)

	router := mux.NewRouter()
	router.Handle("/transactions", walletMiddleware(handlers.HandleSubmitTransaction(l, saveObjectCh))).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{digest}", handlers.HandleGetTransaction(l)).Methods(http.MethodGet)
	router.HandleFunc("/objects/{objectID}", handlers.HandleGetObject(l)).Methods(http.MethodGet)
	router.HandleFunc("/owners/{owner}/objects", handlers.HandleGetOwnedObjects(l)).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, l
}

func runCLI(t *testing.T, server *httptest.Server, dataDir string, args ...string) error {
	t.Helper()
	full := append([]string{"splitsecond", "--server", server.URL, "--data-dir", dataDir}, args...)
	return newCommand().Run(context.Background(), full)
}

func TestSetup_JoinsExistingLeaderboard(t *testing.T) {
	server, l := newTestServer(t)

	// the board was created by another player
	record, err := l.Submit(&ledger.Transaction{Kind: ledger.TxCreateLeaderboard})
	require.NoError(t, err)
	boardID := record.ObjectChanges[0].ObjectID

	dataDir := t.TempDir()
	require.NoError(t, runCLI(t, server, dataDir, "setup", "--board", boardID))

	store := idstore.Load(filepath.Join(dataDir, "ids.json"))
	got, ok := store.Get(idstore.KeyLeaderboardID)
	require.True(t, ok)
	assert.Equal(t, boardID, got)

	// the freshly generated wallet key authenticated with the server
	// without any key exchange, and a game was created for it
	gameID, ok := store.Get(idstore.KeyGameID)
	require.True(t, ok)
	_, err = l.GetObject(gameID)
	assert.NoError(t, err)
}

func TestSetup_RejectsUnknownLeaderboard(t *testing.T) {
	server, _ := newTestServer(t)

	dataDir := t.TempDir()
	err := runCLI(t, server, dataDir, "setup", "--board", "missing")
	require.Error(t, err)

	_, ok := idstore.Load(filepath.Join(dataDir, "ids.json")).Get(idstore.KeyLeaderboardID)
	assert.False(t, ok)
}

func TestSetup_SecondRunReusesIdentityAndIds(t *testing.T) {
	server, _ := newTestServer(t)

	dataDir := t.TempDir()
	require.NoError(t, runCLI(t, server, dataDir, "setup"))

	store := idstore.Load(filepath.Join(dataDir, "ids.json"))
	boardID, ok := store.Get(idstore.KeyLeaderboardID)
	require.True(t, ok)
	gameID, ok := store.Get(idstore.KeyGameID)
	require.True(t, ok)

	require.NoError(t, runCLI(t, server, dataDir, "setup"))

	store = idstore.Load(filepath.Join(dataDir, "ids.json"))
	got, _ := store.Get(idstore.KeyLeaderboardID)
	assert.Equal(t, boardID, got)
	got, _ = store.Get(idstore.KeyGameID)
	assert.Equal(t, gameID, got)
}
