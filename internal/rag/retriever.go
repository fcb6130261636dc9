package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/scholarstack/paperrag/internal/models"
)

// Query scopes. A scope names the set of logical data stores a query is
// allowed to search.
const (
	ScopePrivate = "private"
	ScopePublic  = "public"
	ScopeAll     = "all"
)

// PublicDataStoreID is the shared index every user can search.
const PublicDataStoreID = "papers-public"

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 5

// PrivateDataStoreID returns the per-user private index identifier.
func PrivateDataStoreID(userID string) string {
	return fmt.Sprintf("user-%s-private", userID)
}

// ResolveScope maps a scope to the data store identifiers it covers. An
// empty scope defaults to all. Unknown scopes are a validation error.
func ResolveScope(userID, scope string) ([]string, error) {
	switch scope {
	case ScopePrivate:
		return []string{PrivateDataStoreID(userID)}, nil
	case ScopePublic:
		return []string{PublicDataStoreID}, nil
	case ScopeAll, "":
		return []string{PrivateDataStoreID(userID), PublicDataStoreID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", ErrValidation, scope)
	}
}

// ScoredChunk is a retrieved passage with its similarity score. Higher
// scores are more relevant.
type ScoredChunk struct {
	Content  string
	Metadata models.ChunkMetadata
	Score    float64
}

// Retriever searches one or more data stores by vector similarity. Results
// are ordered by descending score; ties keep their encounter order. A
// failure in any data store fails the whole search, naming the store.
type Retriever interface {
	Search(ctx context.Context, vector []float32, dataStoreIDs []string, topK int) ([]ScoredChunk, error)
}

// Indexer accepts embedded chunks into a data store. Chunks become owned by
// the index once upserted.
type Indexer interface {
	Upsert(ctx context.Context, dataStoreID string, docs []models.IndexedChunk) error
}

// rankAndTruncate sorts candidates by descending score, stable across the
// incoming order, and keeps the top k.
func rankAndTruncate(candidates []ScoredChunk, k int) []ScoredChunk {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
