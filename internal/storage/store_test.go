package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"Adagio", "Mars", "Boléro"} {
		require.NoError(t, s.Record(ctx, SelectionRecord{
			SessionID: "sess-1",
			Title:     "Which one?",
			ItemText:  text,
			ItemKind:  "simple",
			ChosenAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// Newest first.
	assert.Equal(t, "Boléro", recs[0].ItemText)
	assert.Equal(t, "Adagio", recs[2].ItemText)
	assert.Equal(t, "sess-1", recs[0].SessionID)
}

func TestRecentRespectsLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, s.Record(ctx, SelectionRecord{
			SessionID: "s", Title: "t", ItemText: "x", ItemKind: "simple",
		}))
	}

	recs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestChildSelectionRecorded(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, SelectionRecord{
		SessionID: "s",
		Title:     "Play which?",
		ItemText:  "Holst: The Planets",
		ItemKind:  "album",
		ChildText: "Venus",
	}))

	recs, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Venus", recs[0].ChildText)
	assert.Equal(t, "album", recs[0].ItemKind)
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, SelectionRecord{
		SessionID: "s", Title: "t", ItemText: "old", ItemKind: "simple",
		ChosenAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, s.Record(ctx, SelectionRecord{
		SessionID: "s", Title: "t", ItemText: "new", ItemKind: "simple",
	}))

	n, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].ItemText)
}

func TestCloseIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
