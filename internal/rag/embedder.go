package rag

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/scholarstack/paperrag/internal/gcp"
)

// Embedding task types understood by the Vertex embedding models. Document
// chunks and queries are embedded differently for asymmetric retrieval.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float32, error)
	// EmbedBatch embeds texts concurrently. The output preserves input
	// order: result[i] is the vector for texts[i].
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// VertexEmbedder is the production Embedder backed by a Vertex AI embedding
// model.
type VertexEmbedder struct {
	client      *gcp.EmbeddingClient
	concurrency int
}

// NewVertexEmbedder wraps an embedding client. concurrency bounds the batch
// fan-out; values below 1 fall back to a sane default.
func NewVertexEmbedder(client *gcp.EmbeddingClient, concurrency int) *VertexEmbedder {
	if concurrency < 1 {
		concurrency = 8
	}
	return &VertexEmbedder{client: client, concurrency: concurrency}
}

func (e *VertexEmbedder) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	vector, err := e.client.Predict(ctx, text, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: upstream returned an empty vector", ErrEmbedding)
	}
	return vector, nil
}

func (e *VertexEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i, text := range texts {
		eg.Go(func() error {
			vector, err := e.Embed(gctx, text, taskType)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
