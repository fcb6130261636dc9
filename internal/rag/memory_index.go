package rag

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/scholarstack/paperrag/internal/models"
)

// MemoryIndex is an in-memory Retriever/Indexer using brute-force cosine
// similarity. It backs tests and local development; the production path is
// FirestoreIndex.
type MemoryIndex struct {
	mu     sync.RWMutex
	stores map[string][]models.IndexedChunk

	// FailStores simulates upstream failures for the named data stores.
	FailStores map[string]bool
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{stores: make(map[string][]models.IndexedChunk)}
}

func (x *MemoryIndex) Upsert(_ context.Context, dataStoreID string, docs []models.IndexedChunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.FailStores[dataStoreID] {
		return fmt.Errorf("%w: data store %s unavailable", ErrPersistence, dataStoreID)
	}
	x.stores[dataStoreID] = append(x.stores[dataStoreID], docs...)
	return nil
}

func (x *MemoryIndex) Search(_ context.Context, vector []float32, dataStoreIDs []string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var candidates []ScoredChunk
	for _, storeID := range dataStoreIDs {
		if x.FailStores[storeID] {
			return nil, fmt.Errorf("%w: data store %s: simulated failure", ErrRetrieval, storeID)
		}
		for _, doc := range x.stores[storeID] {
			candidates = append(candidates, ScoredChunk{
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Score:    cosineSimilarity(vector, doc.Embedding),
			})
		}
	}
	return rankAndTruncate(candidates, topK), nil
}

// Count returns the number of documents held by a data store.
func (x *MemoryIndex) Count(dataStoreID string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.stores[dataStoreID])
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
