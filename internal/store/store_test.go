package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "counts.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestAddCountsAccumulates(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	id1, err := s.AddCounts(ctx, "a.txt", map[string]int{"the": 10, "cat": 2}, 12)
	require.NoError(t, err)
	id2, err := s.AddCounts(ctx, "b.txt", map[string]int{"the": 5, "hat": 1}, 6)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"the": 15, "cat": 2, "hat": 1}, counts)

	ingests, err := s.Ingests(ctx)
	require.NoError(t, err)
	require.Len(t, ingests, 2)
	assert.Equal(t, "a.txt", ingests[0].Source)
	assert.Equal(t, 12, ingests[0].Tokens)
	assert.Equal(t, 2, ingests[0].Words)
	assert.Equal(t, "b.txt", ingests[1].Source)
	assert.False(t, ingests[1].IngestedAt.IsZero())
}

func TestCountsPersistAcrossOpen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	_, err := s.AddCounts(ctx, "a.txt", map[string]int{"hello": 3}, 3)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	counts, err := reopened.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hello": 3}, counts)
}

func TestReset(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	_, err := s.AddCounts(ctx, "a.txt", map[string]int{"hello": 3}, 3)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	ingests, err := s.Ingests(ctx)
	require.NoError(t, err)
	assert.Empty(t, ingests)
}

func TestAddCountsCancelled(t *testing.T) {
	s, _ := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddCounts(ctx, "a.txt", map[string]int{"hello": 3}, 3)
	assert.Error(t, err)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}
