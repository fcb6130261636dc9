package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarstack/paperrag/internal/models"
)

func TestResolveScope(t *testing.T) {
	private, err := ResolveScope("u1", ScopePrivate)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-u1-private"}, private)

	public, err := ResolveScope("u1", ScopePublic)
	require.NoError(t, err)
	assert.Equal(t, []string{PublicDataStoreID}, public)

	all, err := ResolveScope("u1", ScopeAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, append(private, public...), all)

	// Private and public never intersect.
	for _, p := range private {
		assert.NotContains(t, public, p)
	}
}

func TestResolveScopeDefaultsToAll(t *testing.T) {
	stores, err := ResolveScope("u1", "")
	require.NoError(t, err)
	assert.Len(t, stores, 2)
}

func TestResolveScopeRejectsUnknown(t *testing.T) {
	_, err := ResolveScope("u1", "everything")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMemoryIndexRanksDescending(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	docs := []models.IndexedChunk{
		{Content: "orthogonal", Embedding: []float32{0, 1, 0}},
		{Content: "exact", Embedding: []float32{1, 0, 0}},
		{Content: "close", Embedding: []float32{0.9, 0.1, 0}},
	}
	require.NoError(t, index.Upsert(ctx, "user-u1-private", docs))

	results, err := index.Search(ctx, []float32{1, 0, 0}, []string{"user-u1-private"}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact", results[0].Content)
	assert.Equal(t, "close", results[1].Content)
	assert.Equal(t, "orthogonal", results[2].Content)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMemoryIndexMergesStores(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	require.NoError(t, index.Upsert(ctx, "user-u1-private", []models.IndexedChunk{
		{Content: "private hit", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, index.Upsert(ctx, PublicDataStoreID, []models.IndexedChunk{
		{Content: "public hit", Embedding: []float32{0.8, 0.2}},
	}))

	results, err := index.Search(ctx, []float32{1, 0}, []string{"user-u1-private", PublicDataStoreID}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "private hit", results[0].Content)
}

func TestMemoryIndexTruncatesToTopK(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	var docs []models.IndexedChunk
	for i := 0; i < 10; i++ {
		docs = append(docs, models.IndexedChunk{Content: "doc", Embedding: []float32{1, float32(i) * 0.01}})
	}
	require.NoError(t, index.Upsert(ctx, "s", docs))

	results, err := index.Search(ctx, []float32{1, 0}, []string{"s"}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestMemoryIndexStableTies(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	// Identical vectors tie on score; encounter order must be preserved.
	require.NoError(t, index.Upsert(ctx, "s", []models.IndexedChunk{
		{Content: "first", Embedding: []float32{1, 0}},
		{Content: "second", Embedding: []float32{1, 0}},
		{Content: "third", Embedding: []float32{1, 0}},
	}))

	results, err := index.Search(ctx, []float32{1, 0}, []string{"s"}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "second", results[1].Content)
	assert.Equal(t, "third", results[2].Content)
}

func TestMemoryIndexFailureIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()
	index.FailStores = map[string]bool{PublicDataStoreID: true}

	require.NoError(t, index.Upsert(ctx, "user-u1-private", []models.IndexedChunk{
		{Content: "private hit", Embedding: []float32{1, 0}},
	}))

	// One failing store fails the whole search; no partial results.
	results, err := index.Search(ctx, []float32{1, 0}, []string{"user-u1-private", PublicDataStoreID}, 5)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorContains(t, err, PublicDataStoreID)
	assert.Nil(t, results)
}
