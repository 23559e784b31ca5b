package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chillbox/internal/event"
	"chillbox/internal/storage"
)

func setupTestDB(t *testing.T) (storage.Storage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test_chillbox.db")
	store := NewSQLiteStore(dbPath)
	err := store.Init(context.Background())
	require.NoError(t, err, "Failed to initialize test database")

	cleanup := func() {
		assert.NoError(t, store.Close(), "Failed to close test database")
	}
	return store, cleanup
}

func TestSaveAndGetEvent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	saved := event.Event{
		Timestamp: now,
		Type:      event.EventTypeSessionComplete,
		Value:     25,
		Tag:       "Work",
		Notes:     "Completed work sessions 3",
	}

	id, err := store.SaveEvent(ctx, saved)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	retrieved, err := store.GetEvents(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, retrieved, 1)

	got := retrieved[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, saved.Type, got.Type)
	assert.True(t, saved.Timestamp.Equal(got.Timestamp.Truncate(time.Second)))
	assert.InDelta(t, saved.Value, got.Value, 0.001)
	assert.Equal(t, saved.Tag, got.Tag)
	assert.Equal(t, saved.Notes, got.Notes)
}

func TestGetEventsFiltering(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	t1 := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Second)
	t2 := t1.Add(1 * time.Minute)
	t3 := t1.Add(5 * time.Minute)
	t4 := t1.Add(15 * time.Minute) // outside the first range

	events := []event.Event{
		{Timestamp: t1, Type: event.EventTypeSessionStart, Tag: "Work"},
		{Timestamp: t2, Type: event.EventTypeSessionComplete, Tag: "Work", Value: 25},
		{Timestamp: t3, Type: event.EventTypeSessionStart, Tag: "ShortRest"},
		{Timestamp: t4, Type: event.EventTypeSessionReset, Tag: "Work"},
	}
	for _, e := range events {
		_, err := store.SaveEvent(ctx, e)
		require.NoError(t, err)
	}

	retrieved, err := store.GetEvents(ctx, t1, t3)
	require.NoError(t, err)
	require.Len(t, retrieved, 3)
	assert.Equal(t, event.EventTypeSessionStart, retrieved[0].Type)
	assert.Equal(t, event.EventTypeSessionComplete, retrieved[1].Type)
	assert.Equal(t, "ShortRest", retrieved[2].Tag)

	retrieved, err = store.GetEvents(ctx, t1.Add(-time.Hour), t4.Add(time.Hour), event.EventTypeSessionStart)
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, "Work", retrieved[0].Tag)
	assert.Equal(t, "ShortRest", retrieved[1].Tag)

	retrieved, err = store.GetEvents(ctx, t1.Add(-time.Hour), t4.Add(time.Hour), event.EventTypeSessionComplete, event.EventTypeSessionReset)
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, event.EventTypeSessionComplete, retrieved[0].Type)
	assert.Equal(t, event.EventTypeSessionReset, retrieved[1].Type)

	retrieved, err = store.GetEvents(ctx, t1.Add(10*time.Hour), t4.Add(11*time.Hour))
	require.NoError(t, err)
	assert.Len(t, retrieved, 0)
}

func TestCloseDB(t *testing.T) {
	store, cleanup := setupTestDB(t)
	cleanup()

	_, err := store.SaveEvent(context.Background(), event.Event{Timestamp: time.Now(), Type: event.EventTypeAppStart})
	assert.Error(t, err)
}
