package idstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")

	store := Load(path)
	_, ok := store.Get(KeyGameID)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyGameID, "game-1"))
	require.NoError(t, store.Set(KeyLeaderboardID, "board-1"))

	// values survive across sessions
	reloaded := Load(path)
	gameID, ok := reloaded.Get(KeyGameID)
	require.True(t, ok)
	assert.Equal(t, "game-1", gameID)
	boardID, ok := reloaded.Get(KeyLeaderboardID)
	require.True(t, ok)
	assert.Equal(t, "board-1", boardID)
}

func TestStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")

	store := Load(path)
	require.NoError(t, store.Set(KeyGameID, "game-1"))
	require.NoError(t, store.Delete(KeyGameID))

	_, ok := Load(path).Get(KeyGameID)
	assert.False(t, ok)
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := Load(path)
	_, ok := store.Get(KeyGameID)
	assert.False(t, ok)
	require.NoError(t, store.Set(KeyGameID, "game-1"))
}
