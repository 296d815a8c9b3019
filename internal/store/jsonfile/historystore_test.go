package jsonfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/lanewatch/internal/core/history"
	"github.com/hay-kot/lanewatch/internal/detect"
)

func newTestHistoryStore(t *testing.T, maxEntries int) *HistoryStore {
	t.Helper()
	return NewHistoryStore(filepath.Join(t.TempDir(), "history.json"), maxEntries)
}

func entry(id, lane string, to detect.Status) history.Entry {
	return history.Entry{
		ID:        id,
		LaneID:    lane,
		AgentType: "claude",
		Previous:  detect.StatusWorking,
		New:       to,
		Timestamp: time.Now(),
	}
}

func TestHistoryStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t, 0)

	require.NoError(t, store.Save(ctx, entry("1", "lane-a", detect.StatusDone)))
	require.NoError(t, store.Save(ctx, entry("2", "lane-b", detect.StatusWaiting)))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].ID, "newest first")
	assert.Equal(t, "1", entries[1].ID)
}

func TestHistoryStore_ListLane(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t, 0)

	require.NoError(t, store.Save(ctx, entry("1", "lane-a", detect.StatusDone)))
	require.NoError(t, store.Save(ctx, entry("2", "lane-b", detect.StatusDone)))
	require.NoError(t, store.Save(ctx, entry("3", "lane-a", detect.StatusError)))

	entries, err := store.ListLane(ctx, "lane-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].ID)
	assert.Equal(t, "1", entries[1].ID)
}

func TestHistoryStore_PrunesOldEntries(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t, 2)

	require.NoError(t, store.Save(ctx, entry("1", "lane-a", detect.StatusDone)))
	require.NoError(t, store.Save(ctx, entry("2", "lane-a", detect.StatusDone)))
	require.NoError(t, store.Save(ctx, entry("3", "lane-a", detect.StatusDone)))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].ID)
	assert.Equal(t, "2", entries[1].ID)
}

func TestHistoryStore_LastError(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t, 0)

	_, err := store.LastError(ctx)
	require.ErrorIs(t, err, history.ErrNotFound)

	require.NoError(t, store.Save(ctx, entry("1", "lane-a", detect.StatusError)))
	require.NoError(t, store.Save(ctx, entry("2", "lane-a", detect.StatusDone)))

	got, err := store.LastError(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
}

func TestHistoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t, 0)

	require.NoError(t, store.Save(ctx, entry("1", "lane-a", detect.StatusDone)))
	require.NoError(t, store.Clear(ctx))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryStore_MissingFileIsEmpty(t *testing.T) {
	store := newTestHistoryStore(t, 0)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
