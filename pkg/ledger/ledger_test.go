package ledger

import (
	"testing"

	"github.com/ledgergames/splitsecond/pkg/clock"
	"github.com/ledgergames/splitsecond/pkg/game"
	"github.com/ledgergames/splitsecond/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, c clock.Clock) (*Ledger, *queue.InMemoryQueue) {
	t.Helper()
	eventQueue := queue.NewInMemoryQueue(16)
	return NewLedger(NewLedgerOptions{
		Clock:      c,
		EventQueue: eventQueue,
	}), eventQueue
}

func createGame(t *testing.T, l *Ledger, sender string) string {
	t.Helper()
	record, err := l.Submit(&Transaction{Kind: TxCreateGame, Sender: sender})
	require.NoError(t, err)
	require.Len(t, record.ObjectChanges, 1)
	require.Equal(t, ChangeCreated, record.ObjectChanges[0].Kind)
	require.Equal(t, TypeTagGame, record.ObjectChanges[0].ObjectType)
	return record.ObjectChanges[0].ObjectID
}

func createLeaderboard(t *testing.T, l *Ledger, sender string) string {
	t.Helper()
	record, err := l.Submit(&Transaction{Kind: TxCreateLeaderboard, Sender: sender})
	require.NoError(t, err)
	require.Len(t, record.ObjectChanges, 1)
	require.True(t, record.ObjectChanges[0].Shared)
	return record.ObjectChanges[0].ObjectID
}

func TestSubmit_StartStopRoundTrip(t *testing.T) {
	c := clock.NewManualClock(0)
	l, eventQueue := newTestLedger(t, c)

	gameID := createGame(t, l, "0xabc")
	boardID := createLeaderboard(t, l, "0xabc")

	_, err := l.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: gameID})
	require.NoError(t, err)

	c.SetMs(10020)
	record, err := l.Submit(&Transaction{
		Kind:          TxStop,
		Sender:        "0xabc",
		GameID:        gameID,
		LeaderboardID: boardID,
		Name:          "tester",
	})
	require.NoError(t, err)
	require.Equal(t, TxStatusSuccess, record.Status)
	require.Len(t, record.Events, 1)
	assert.Equal(t, "0xabc", record.Events[0].Player)
	assert.Equal(t, uint64(20), record.Events[0].DiffMs)
	assert.Equal(t, uint64(20), record.Events[0].NewBestMs)

	// both the game and the board are reported mutated
	kinds := map[string]string{}
	for _, change := range record.ObjectChanges {
		kinds[change.ObjectID] = change.Kind
	}
	assert.Equal(t, ChangeMutated, kinds[gameID])
	assert.Equal(t, ChangeMutated, kinds[boardID])

	// the result event was emitted to the queue
	events, err := eventQueue.ReadAllMessages()
	require.NoError(t, err)
	require.Len(t, events, 1)

	// and the read form reflects the new state
	raw, err := l.GetObject(gameID)
	require.NoError(t, err)
	assert.Equal(t, "20", raw.Content["best_diff_ms"])
	assert.Nil(t, raw.Content["active_start_ms"])
}

func TestSubmit_PreconditionFailuresMutateNothing(t *testing.T) {
	c := clock.NewManualClock(0)
	l, eventQueue := newTestLedger(t, c)

	gameID := createGame(t, l, "0xabc")
	boardID := createLeaderboard(t, l, "0xabc")

	// stop without start
	record, err := l.Submit(&Transaction{
		Kind:          TxStop,
		Sender:        "0xabc",
		GameID:        gameID,
		LeaderboardID: boardID,
	})
	require.Error(t, err)
	assert.True(t, game.IsNotStarted(err))
	assert.Equal(t, TxStatusFailure, record.Status)
	assert.Empty(t, record.ObjectChanges)
	assert.Empty(t, record.Events)

	// start twice
	_, err = l.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: gameID})
	require.NoError(t, err)
	record, err = l.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: gameID})
	require.Error(t, err)
	assert.True(t, game.IsAlreadyStarted(err))
	assert.Equal(t, TxStatusFailure, record.Status)

	events, err := eventQueue.ReadAllMessages()
	require.NoError(t, err)
	assert.Empty(t, events)

	// the failed transactions are still queryable by digest
	got, err := l.GetTransaction(record.Digest)
	require.NoError(t, err)
	assert.Equal(t, TxStatusFailure, got.Status)
}

func TestSubmit_OwnedObjectAuthorization(t *testing.T) {
	c := clock.NewManualClock(0)
	l, _ := newTestLedger(t, c)

	gameID := createGame(t, l, "0xabc")

	_, err := l.Submit(&Transaction{Kind: TxStart, Sender: "0xeve", GameID: gameID})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	// the rightful owner is unaffected
	_, err = l.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: gameID})
	require.NoError(t, err)
}

func TestSubmit_WrongObjectType(t *testing.T) {
	c := clock.NewManualClock(0)
	l, _ := newTestLedger(t, c)

	boardID := createLeaderboard(t, l, "0xabc")

	_, err := l.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: boardID})
	require.Error(t, err)
	assert.True(t, IsWrongObjectType(err))
}

func TestSubmit_SharedLeaderboardAcrossPlayers(t *testing.T) {
	c := clock.NewManualClock(0)
	l, _ := newTestLedger(t, c)

	boardID := createLeaderboard(t, l, "0xaaa")
	aliceGame := createGame(t, l, "0xaaa")
	bobGame := createGame(t, l, "0xbbb")

	play := func(sender, gameID string, stopMs int64, name string) {
		c.SetMs(0)
		_, err := l.Submit(&Transaction{Kind: TxStart, Sender: sender, GameID: gameID})
		require.NoError(t, err)
		c.SetMs(stopMs)
		_, err = l.Submit(&Transaction{
			Kind:          TxStop,
			Sender:        sender,
			GameID:        gameID,
			LeaderboardID: boardID,
			Name:          name,
		})
		require.NoError(t, err)
	}

	play("0xaaa", aliceGame, 10100, "alice")
	play("0xbbb", bobGame, 10010, "bob")
	play("0xaaa", aliceGame, 10030, "alice")

	raw, err := l.GetObject(boardID)
	require.NoError(t, err)
	entries, ok := raw.Content["entries"].([]interface{})
	require.True(t, ok)
	// dedup by player: two entries, insertion order
	require.Len(t, entries, 2)
	first, ok := entries[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "0xaaa", first["player"])
	assert.Equal(t, "30", first["best_diff_ms"])
}

func TestGetOwnedObjects(t *testing.T) {
	c := clock.NewManualClock(0)
	l, _ := newTestLedger(t, c)

	createLeaderboard(t, l, "0xabc")
	gameID := createGame(t, l, "0xabc")
	createGame(t, l, "0xother")

	raws := l.GetOwnedObjects("0xabc", TypeTagGame)
	require.Len(t, raws, 1)
	assert.Equal(t, gameID, raws[0].ObjectID)

	assert.Empty(t, l.GetOwnedObjects("0xnobody", TypeTagGame))
}

func TestGetObject_NotFound(t *testing.T) {
	c := clock.NewManualClock(0)
	l, _ := newTestLedger(t, c)

	_, err := l.GetObject("missing")
	require.Error(t, err)
	assert.True(t, IsObjectNotFound(err))
}

func TestSnapshotRestore(t *testing.T) {
	c := clock.NewManualClock(0)
	l, _ := newTestLedger(t, c)

	gameID := createGame(t, l, "0xabc")
	boardID := createLeaderboard(t, l, "0xabc")
	_, err := l.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: gameID})
	require.NoError(t, err)
	c.SetMs(10020)
	_, err = l.Submit(&Transaction{
		Kind:          TxStop,
		Sender:        "0xabc",
		GameID:        gameID,
		LeaderboardID: boardID,
		Name:          "tester",
	})
	require.NoError(t, err)

	snapshots, err := l.Snapshot()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	restored, _ := newTestLedger(t, c)
	require.NoError(t, restored.Restore(snapshots))

	raw, err := restored.GetObject(gameID)
	require.NoError(t, err)
	assert.Equal(t, "20", raw.Content["best_diff_ms"])

	// the restored game is still owned and playable
	_, err = restored.Submit(&Transaction{Kind: TxStart, Sender: "0xabc", GameID: gameID})
	require.NoError(t, err)
}
