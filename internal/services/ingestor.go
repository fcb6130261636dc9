package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"

	"github.com/scholarstack/paperrag/internal/chunker"
	"github.com/scholarstack/paperrag/internal/gcp"
	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
)

const pdfContentType = "application/pdf"

// chunkSourceTag marks where an indexed chunk came from.
const chunkSourceTag = "pdf-upload"

// IngestorConfig holds all configuration for the ingestion service.
type IngestorConfig struct {
	ProjectID        string
	PapersBucket     string
	PapersCollection string
	VertexAIRegion   string
	EmbeddingModel   string
	EmbedConcurrency int
}

// IngestorFunction drives one uploaded paper through extraction, chunking,
// embedding and indexing, updating the paper's processing state machine.
type IngestorFunction struct {
	papers   PaperStore
	blobs    BlobStore
	embedder rag.Embedder
	index    rag.Indexer
	extract  func(data []byte) (string, int, error)
	config   IngestorConfig
}

// GCSEvent is the storage-finalize payload delivered by Eventarc.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

func loadIngestorConfig() (*IngestorConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	papersBucket := gcp.GetEnv("PAPERS_BUCKET", "")
	if papersBucket == "" {
		return nil, fmt.Errorf("PAPERS_BUCKET environment variable must be set")
	}

	return &IngestorConfig{
		ProjectID:        projectID,
		PapersBucket:     papersBucket,
		PapersCollection: gcp.GetEnv("FIRESTORE_COLLECTION", gcp.PapersCollection),
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		EmbeddingModel:   gcp.GetEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbedConcurrency: 8,
	}, nil
}

// NewIngestor creates an IngestorFunction wired to production GCP clients.
func NewIngestor(ctx context.Context) (*IngestorFunction, error) {
	config, err := loadIngestorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	embeddingClient, err := gcp.NewEmbeddingClient(ctx, config.ProjectID, config.VertexAIRegion, config.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	f := NewIngestorWith(
		NewFirestorePaperStore(firestoreClient, config.PapersCollection),
		NewGCSBlobStore(storageClient.Bucket(config.PapersBucket)),
		rag.NewVertexEmbedder(embeddingClient, config.EmbedConcurrency),
		rag.NewFirestoreIndex(firestoreClient),
		*config,
	)
	slog.Info("Ingestor initialized.", "papersBucket", config.PapersBucket)
	return f, nil
}

// NewIngestorWith assembles an IngestorFunction from explicit collaborators.
func NewIngestorWith(papers PaperStore, blobs BlobStore, embedder rag.Embedder, index rag.Indexer, config IngestorConfig) *IngestorFunction {
	return &IngestorFunction{
		papers:   papers,
		blobs:    blobs,
		embedder: embedder,
		index:    index,
		extract:  ExtractText,
		config:   config,
	}
}

// Process handles one storage event. Non-PDF artifacts and objects outside
// the papers layout are skipped without touching any paper state. Once a
// paper enters processing, any failure transitions it to error exactly once
// and aborts the remaining steps.
func (f *IngestorFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if e.ContentType != pdfContentType {
		logCtx.Info("Skipping non-PDF artifact.", "contentType", e.ContentType)
		return nil
	}
	path, ok := ParseStoragePath(e.Name)
	if !ok {
		logCtx.Info("Skipping object outside the papers layout.")
		return nil
	}
	logCtx = logCtx.With("paperId", path.PaperID, "userId", path.UserID)

	paper, err := f.papers.Get(ctx, path.PaperID)
	if err != nil {
		logCtx.Error("Failed to load paper record for uploaded object.", "error", err)
		return err
	}
	if paper.Status == models.StatusCompleted {
		// Duplicate trigger delivery for an already-ingested paper.
		logCtx.Info("Paper already completed. Skipping duplicate trigger.")
		return nil
	}

	if err := f.papers.SetStatus(ctx, path.PaperID, models.StatusProcessing, ""); err != nil {
		logCtx.Error("Failed to mark paper processing.", "error", err)
		return err
	}
	logCtx.Info("Starting ingestion.")

	data, err := f.blobs.Download(ctx, e.Name)
	if err != nil {
		return f.fail(ctx, logCtx, path.PaperID, "failed to download uploaded PDF", err)
	}

	text, pageCount, err := f.extract(data)
	if err != nil {
		return f.fail(ctx, logCtx, path.PaperID, "failed to extract text", err)
	}

	chunks := chunker.Split(text, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap)
	if len(chunks) == 0 {
		return f.fail(ctx, logCtx, path.PaperID, "no indexable text in document", fmt.Errorf("%w: extracted %d characters, none usable", rag.ErrExtraction, len(text)))
	}
	logCtx.Info("Document chunked.", "textLength", len(text), "chunkCount", len(chunks), "pageCount", pageCount)

	vectors, err := f.embedder.EmbedBatch(ctx, chunks, rag.TaskDocument)
	if err != nil {
		return f.fail(ctx, logCtx, path.PaperID, "failed to embed chunks", err)
	}

	now := time.Now()
	docs := make([]models.IndexedChunk, len(chunks))
	for i, content := range chunks {
		docs[i] = models.IndexedChunk{
			Content: content,
			Metadata: models.ChunkMetadata{
				PaperID:     path.PaperID,
				UserID:      path.UserID,
				FileName:    path.FileName,
				Title:       paper.Title,
				Authors:     paper.Authors,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				Source:      chunkSourceTag,
				Timestamp:   now,
			},
			Embedding:  vectors[i],
			IngestedAt: now,
		}
	}

	dataStoreID := rag.PrivateDataStoreID(path.UserID)
	if err := f.index.Upsert(ctx, dataStoreID, docs); err != nil {
		return f.fail(ctx, logCtx, path.PaperID, "failed to index chunks", err)
	}

	if err := f.papers.MarkCompleted(ctx, path.PaperID, len(chunks), len(text), pageCount); err != nil {
		return f.fail(ctx, logCtx, path.PaperID, "failed to record completion", err)
	}

	logCtx.Info("Ingestion complete.", "dataStore", dataStoreID, "chunkCount", len(chunks))
	return nil
}

// fail records the error state on the paper, best effort. A failing status
// write is logged and swallowed so it never masks the root cause.
func (f *IngestorFunction) fail(ctx context.Context, logCtx *slog.Logger, paperID, message string, cause error) error {
	fullError := fmt.Sprintf("%s: %v", message, cause)
	logCtx.Error(message, "error", cause)
	if err := f.papers.SetStatus(ctx, paperID, models.StatusError, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to record error status after a processing failure.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, cause)
}
