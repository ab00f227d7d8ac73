package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopEntries(t *testing.T) {
	entries := []BoardEntry{
		{Player: "0xaaa", BestDiffMs: 100, Name: "alice"},
		{Player: "0xbbb", BestDiffMs: 10, Name: "bob"},
		{Player: "0xccc", BestDiffMs: 50, Name: "carol"},
	}

	top := TopEntries(entries, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].Name)
	assert.Equal(t, "carol", top[1].Name)

	// the input keeps its insertion order
	assert.Equal(t, "alice", entries[0].Name)
	assert.Equal(t, "bob", entries[1].Name)
	assert.Equal(t, "carol", entries[2].Name)
}

func TestTopEntries_NSmallerThanLen(t *testing.T) {
	entries := []BoardEntry{
		{Player: "0xaaa", BestDiffMs: 100, Name: "alice"},
	}
	top := TopEntries(entries, 10)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Name)

	assert.Empty(t, TopEntries(nil, 10))
}

func TestTopEntries_TiesKeepInsertionOrder(t *testing.T) {
	entries := []BoardEntry{
		{Player: "0xaaa", BestDiffMs: 10, Name: "alice"},
		{Player: "0xbbb", BestDiffMs: 10, Name: "bob"},
	}
	top := TopEntries(entries, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "alice", top[0].Name)
	assert.Equal(t, "bob", top[1].Name)
}
