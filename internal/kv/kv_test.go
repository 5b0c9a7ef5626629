// ABOUTME: Shared contract tests for kv.Store implementations.
// ABOUTME: Runs the same suite against the memory and SQLite stores.

package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore_GetAbsent(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(context.Background(), "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "suggestions:paris", []byte(`{"a":1}`)))

			got, ok, err := s.Get(ctx, "suggestions:paris")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte(`{"a":1}`), got)
		})
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "k", []byte("old")))
			require.NoError(t, s.Put(ctx, "k", []byte("new")))

			got, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("new"), got)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "k", []byte("v")))
			require.NoError(t, s.Delete(ctx, "k"))

			_, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting an absent key is not an error
			require.NoError(t, s.Delete(ctx, "k"))
		})
	}
}

func TestStore_ListByPrefix(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "inbox:1", []byte("a")))
			require.NoError(t, s.Put(ctx, "inbox:2", []byte("b")))
			require.NoError(t, s.Put(ctx, "suggestions:x", []byte("c")))

			got, err := s.List(ctx, "inbox:")
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Equal(t, []byte("a"), got["inbox:1"])
			assert.Equal(t, []byte("b"), got["inbox:2"])
		})
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("persisted")))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}
