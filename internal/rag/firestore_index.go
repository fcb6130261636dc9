package rag

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/scholarstack/paperrag/internal/models"
)

const (
	embeddingField = "embedding"
	distanceField  = "vector_distance"
)

// FirestoreIndex implements Retriever and Indexer on top of Firestore
// vector search. Each logical data store maps to one collection whose
// documents carry a vector field.
type FirestoreIndex struct {
	client *firestore.Client
}

func NewFirestoreIndex(client *firestore.Client) *FirestoreIndex {
	return &FirestoreIndex{client: client}
}

// Upsert writes one document per chunk into the data store's collection.
// Document IDs encode the store, the ingestion batch and the chunk index so
// duplicate batch deliveries overwrite rather than multiply.
func (x *FirestoreIndex) Upsert(ctx context.Context, dataStoreID string, docs []models.IndexedChunk) error {
	batchTS := time.Now().UnixMilli()
	bulk := x.client.BulkWriter(ctx)
	coll := x.client.Collection(dataStoreID)

	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for i, doc := range docs {
		docID := fmt.Sprintf("%s-%d-%d", dataStoreID, batchTS, i)
		job, err := bulk.Set(coll.Doc(docID), doc)
		if err != nil {
			bulk.End()
			return fmt.Errorf("%w: queueing chunk %d for %s: %v", ErrPersistence, i, dataStoreID, err)
		}
		jobs = append(jobs, job)
	}
	bulk.End()

	// Set only reports enqueue errors. The write outcome arrives per job, so
	// every job must be checked or a rejected chunk would go unnoticed.
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("%w: writing chunk %d to %s: %v", ErrPersistence, i, dataStoreID, err)
		}
	}
	return nil
}

// Search runs a nearest-neighbour query against each data store and merges
// the candidates into one descending-score ranking. If any store fails the
// whole search fails, with the failing store named in the error.
func (x *FirestoreIndex) Search(ctx context.Context, vector []float32, dataStoreIDs []string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	var candidates []ScoredChunk
	for _, storeID := range dataStoreIDs {
		results, err := x.searchStore(ctx, vector, storeID, topK)
		if err != nil {
			return nil, fmt.Errorf("%w: data store %s: %v", ErrRetrieval, storeID, err)
		}
		candidates = append(candidates, results...)
	}
	return rankAndTruncate(candidates, topK), nil
}

func (x *FirestoreIndex) searchStore(ctx context.Context, vector []float32, storeID string, limit int) ([]ScoredChunk, error) {
	query := x.client.Collection(storeID).FindNearest(
		embeddingField,
		firestore.Vector32(vector),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField},
	)

	var results []ScoredChunk
	it := query.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vector query failed: %w", err)
		}

		var doc models.IndexedChunk
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode indexed chunk %s: %w", snap.Ref.ID, err)
		}
		results = append(results, ScoredChunk{
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    cosineScore(snap.Data()[distanceField]),
		})
	}
	return results, nil
}

// cosineScore converts a cosine distance (0 = identical) into a similarity
// score where higher means more relevant.
func cosineScore(distance any) float64 {
	d, ok := distance.(float64)
	if !ok {
		return 0
	}
	return 1 - d
}
