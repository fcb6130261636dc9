package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/scholarstack/paperrag/internal/gcp"
	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
)

// PaperStore persists Paper documents. Implementations must apply updates
// as partial field writes so concurrent ingestions of different papers
// never clobber each other.
type PaperStore interface {
	Get(ctx context.Context, paperID string) (*models.Paper, error)
	Create(ctx context.Context, paperID string, paper *models.Paper) error
	SetStatus(ctx context.Context, paperID, status, errorMessage string) error
	MarkCompleted(ctx context.Context, paperID string, textChunks, textLength, pageCount int) error
}

// ConversationStore persists and lists conversation records. Records are
// append-only; there is no update path.
type ConversationStore interface {
	Save(ctx context.Context, id string, conv *models.Conversation) error
	List(ctx context.Context, userID string, limit int) ([]models.ConversationSummary, error)
}

// BlobStore fetches raw uploaded bytes by object name.
type BlobStore interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// UploadURLSigner issues signed PUT URLs for client uploads.
type UploadURLSigner interface {
	Sign(objectName, contentType string, ttl time.Duration) (string, time.Time, error)
}

// --- Firestore-backed implementations ---

type firestorePaperStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestorePaperStore returns the production PaperStore.
func NewFirestorePaperStore(client *firestore.Client, collection string) PaperStore {
	if collection == "" {
		collection = gcp.PapersCollection
	}
	return &firestorePaperStore{client: client, collection: collection}
}

func (s *firestorePaperStore) Get(ctx context.Context, paperID string) (*models.Paper, error) {
	snap, err := s.client.Collection(s.collection).Doc(paperID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching paper %s: %v", rag.ErrPersistence, paperID, err)
	}
	var paper models.Paper
	if err := snap.DataTo(&paper); err != nil {
		return nil, fmt.Errorf("%w: decoding paper %s: %v", rag.ErrPersistence, paperID, err)
	}
	return &paper, nil
}

func (s *firestorePaperStore) Create(ctx context.Context, paperID string, paper *models.Paper) error {
	if _, err := s.client.Collection(s.collection).Doc(paperID).Create(ctx, paper); err != nil {
		return fmt.Errorf("%w: creating paper %s: %v", rag.ErrPersistence, paperID, err)
	}
	return nil
}

func (s *firestorePaperStore) SetStatus(ctx context.Context, paperID, status, errorMessage string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: time.Now()},
	}
	if errorMessage != "" {
		updates = append(updates, firestore.Update{Path: "errorMessage", Value: errorMessage})
	}
	if _, err := s.client.Collection(s.collection).Doc(paperID).Update(ctx, updates); err != nil {
		return fmt.Errorf("%w: updating paper %s status: %v", rag.ErrPersistence, paperID, err)
	}
	return nil
}

func (s *firestorePaperStore) MarkCompleted(ctx context.Context, paperID string, textChunks, textLength, pageCount int) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusCompleted},
		{Path: "textChunks", Value: textChunks},
		{Path: "extractedTextLength", Value: textLength},
		{Path: "pageCount", Value: pageCount},
		{Path: "updatedAt", Value: time.Now()},
	}
	if _, err := s.client.Collection(s.collection).Doc(paperID).Update(ctx, updates); err != nil {
		return fmt.Errorf("%w: completing paper %s: %v", rag.ErrPersistence, paperID, err)
	}
	return nil
}

type firestoreConversationStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreConversationStore returns the production ConversationStore.
func NewFirestoreConversationStore(client *firestore.Client, collection string) ConversationStore {
	if collection == "" {
		collection = gcp.ConversationsCollection
	}
	return &firestoreConversationStore{client: client, collection: collection}
}

func (s *firestoreConversationStore) Save(ctx context.Context, id string, conv *models.Conversation) error {
	if _, err := s.client.Collection(s.collection).Doc(id).Create(ctx, conv); err != nil {
		return fmt.Errorf("%w: saving conversation %s: %v", rag.ErrPersistence, id, err)
	}
	return nil
}

func (s *firestoreConversationStore) List(ctx context.Context, userID string, limit int) ([]models.ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	it := s.client.Collection(s.collection).
		Where("userId", "==", userID).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var out []models.ConversationSummary
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: listing conversations for %s: %v", rag.ErrPersistence, userID, err)
		}
		var conv models.Conversation
		if err := snap.DataTo(&conv); err != nil {
			return nil, fmt.Errorf("%w: decoding conversation %s: %v", rag.ErrPersistence, snap.Ref.ID, err)
		}
		out = append(out, models.ConversationSummary{
			ID:        snap.Ref.ID,
			Query:     conv.Query,
			Scope:     conv.Scope,
			Answer:    conv.Answer,
			Sources:   conv.Sources,
			Timestamp: conv.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

type gcsBlobStore struct {
	bucket *storage.BucketHandle
}

// NewGCSBlobStore returns the production BlobStore over one bucket.
func NewGCSBlobStore(bucket *storage.BucketHandle) BlobStore {
	return &gcsBlobStore{bucket: bucket}
}

func (s *gcsBlobStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	return gcp.DownloadObject(ctx, s.bucket, objectName)
}

type gcsUploadURLSigner struct {
	bucket *storage.BucketHandle
}

// NewGCSUploadURLSigner returns the production UploadURLSigner.
func NewGCSUploadURLSigner(bucket *storage.BucketHandle) UploadURLSigner {
	return &gcsUploadURLSigner{bucket: bucket}
}

func (s *gcsUploadURLSigner) Sign(objectName, contentType string, ttl time.Duration) (string, time.Time, error) {
	return gcp.SignedUploadURL(s.bucket, objectName, contentType, ttl)
}
