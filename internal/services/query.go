package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarstack/paperrag/internal/gcp"
	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
)

// QueryConfig holds all configuration for the query service.
type QueryConfig struct {
	ProjectID               string
	VertexAIRegion          string
	EmbeddingModel          string
	AnswerModel             string
	ConversationsCollection string
}

// QueryFunction answers one natural-language question over the caller's
// indexed papers and records the exchange.
type QueryFunction struct {
	embedder      rag.Embedder
	retriever     rag.Retriever
	generator     rag.Generator
	conversations ConversationStore
}

func loadQueryConfig() (*QueryConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return &QueryConfig{
		ProjectID:               projectID,
		VertexAIRegion:          gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		EmbeddingModel:          gcp.GetEnv("EMBEDDING_MODEL", "text-embedding-004"),
		AnswerModel:             gcp.GetEnv("ANSWER_MODEL", "gemini-1.5-flash"),
		ConversationsCollection: gcp.GetEnv("CONVERSATIONS_COLLECTION", gcp.ConversationsCollection),
	}, nil
}

// NewQueryService creates a QueryFunction wired to production GCP clients.
func NewQueryService(ctx context.Context) (*QueryFunction, error) {
	config, err := loadQueryConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	embeddingClient, err := gcp.NewEmbeddingClient(ctx, config.ProjectID, config.VertexAIRegion, config.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.AnswerModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return NewQueryServiceWith(
		rag.NewVertexEmbedder(embeddingClient, 4),
		rag.NewFirestoreIndex(firestoreClient),
		rag.NewVertexGenerator(vertexClient),
		NewFirestoreConversationStore(firestoreClient, config.ConversationsCollection),
	), nil
}

// NewQueryServiceWith assembles a QueryFunction from explicit collaborators.
func NewQueryServiceWith(embedder rag.Embedder, retriever rag.Retriever, generator rag.Generator, conversations ConversationStore) *QueryFunction {
	return &QueryFunction{
		embedder:      embedder,
		retriever:     retriever,
		generator:     generator,
		conversations: conversations,
	}
}

// AnswerQuery runs the full RAG pipeline for one question. Validation
// problems are returned as rag.ErrValidation before any upstream call;
// every later stage failure is logged with its cause and surfaced as the
// opaque rag.ErrQueryFailed.
func (f *QueryFunction) AnswerQuery(ctx context.Context, userID, query, scope string) (*models.QueryResponse, error) {
	query = strings.TrimSpace(query)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", rag.ErrValidation)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", rag.ErrValidation)
	}
	dataStoreIDs, err := rag.ResolveScope(userID, scope)
	if err != nil {
		return nil, err
	}
	if scope == "" {
		scope = rag.ScopeAll
	}

	conversationID := uuid.NewString()
	logCtx := slog.With("userId", userID, "conversationId", conversationID, "scope", scope)

	vector, err := f.embedder.Embed(ctx, query, rag.TaskQuery)
	if err != nil {
		return nil, f.opaque(logCtx, "failed to embed query", err)
	}

	passages, err := f.retriever.Search(ctx, vector, dataStoreIDs, rag.DefaultTopK)
	if err != nil {
		return nil, f.opaque(logCtx, "retrieval failed", err)
	}
	logCtx.Info("Passages retrieved.", "count", len(passages))

	contextText := rag.BuildContext(passages)

	answer, err := f.generator.Generate(ctx, query, contextText)
	if err != nil {
		return nil, f.opaque(logCtx, "answer generation failed", err)
	}

	sources := make([]models.Source, len(passages))
	for i, p := range passages {
		sources[i] = models.Source{
			PaperID: p.Metadata.PaperID,
			Title:   p.Metadata.Title,
			Authors: p.Metadata.Authors,
			Content: p.Content,
			Score:   p.Score,
		}
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		UserID:    userID,
		Query:     query,
		Scope:     scope,
		Answer:    answer,
		Sources:   sources,
		Timestamp: now,
	}
	if err := f.conversations.Save(ctx, conversationID, conv); err != nil {
		return nil, f.opaque(logCtx, "failed to persist conversation", err)
	}
	logCtx.Info("Query answered.", "sourceCount", len(sources))

	return &models.QueryResponse{
		Answer:    answer,
		Sources:   sources,
		Query:     query,
		Scope:     scope,
		Timestamp: now.Format(time.RFC3339),
	}, nil
}

// ListConversations returns the caller's conversation history, newest
// first.
func (f *QueryFunction) ListConversations(ctx context.Context, userID string, limit int) ([]models.ConversationSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", rag.ErrValidation)
	}
	return f.conversations.List(ctx, userID, limit)
}

// opaque logs the internal cause and returns the coarse query error. The
// cause never crosses the system boundary.
func (f *QueryFunction) opaque(logCtx *slog.Logger, message string, cause error) error {
	logCtx.Error(message, "error", cause)
	return rag.ErrQueryFailed
}
