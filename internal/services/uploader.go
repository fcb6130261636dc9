package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/scholarstack/paperrag/internal/gcp"
	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
)

// uploadURLTTL bounds how long a signed upload URL stays valid.
const uploadURLTTL = 15 * time.Minute

// UploaderConfig holds all configuration for the upload service.
type UploaderConfig struct {
	ProjectID        string
	PapersBucket     string
	PapersCollection string
}

// UploadFunction allocates upload slots: a fresh paper record in Firestore
// plus a signed PUT URL the client uploads the PDF to. The storage event on
// that object later drives ingestion.
type UploadFunction struct {
	papers PaperStore
	signer UploadURLSigner
}

// NewUploader creates an UploadFunction wired to production GCP clients.
func NewUploader(ctx context.Context) (*UploadFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	papersBucket := gcp.GetEnv("PAPERS_BUCKET", "")
	if papersBucket == "" {
		return nil, fmt.Errorf("PAPERS_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return NewUploaderWith(
		NewFirestorePaperStore(firestoreClient, gcp.GetEnv("FIRESTORE_COLLECTION", gcp.PapersCollection)),
		NewGCSUploadURLSigner(storageClient.Bucket(papersBucket)),
	), nil
}

// NewUploaderWith assembles an UploadFunction from explicit collaborators.
func NewUploaderWith(papers PaperStore, signer UploadURLSigner) *UploadFunction {
	return &UploadFunction{papers: papers, signer: signer}
}

// CreateSlot validates the request, writes the initial paper record in the
// processing state and returns the signed upload URL. Paper IDs are random
// UUIDs, so concurrent slot requests cannot collide.
func (f *UploadFunction) CreateSlot(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", rag.ErrValidation)
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, fmt.Errorf("%w: fileName must be a plain file name", rag.ErrValidation)
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF uploads are supported", rag.ErrValidation)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		// The suffix check above is case-insensitive, so trim by length.
		title = fileName[:len(fileName)-len(".pdf")]
	}

	paperID := uuid.NewString()
	path := StoragePath{UserID: req.UserID, PaperID: paperID, FileName: fileName}
	now := time.Now()

	paper := &models.Paper{
		OwnerUID:    req.UserID,
		Title:       title,
		Authors:     req.Authors,
		StoragePath: path.Object(),
		Status:      models.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.papers.Create(ctx, paperID, paper); err != nil {
		slog.Error("Failed to create paper record for upload slot.", "userId", req.UserID, "error", err)
		return nil, err
	}

	url, expires, err := f.signer.Sign(path.Object(), pdfContentType, uploadURLTTL)
	if err != nil {
		slog.Error("Failed to sign upload URL.", "paperId", paperID, "error", err)
		return nil, fmt.Errorf("%w: signing upload URL: %v", rag.ErrPersistence, err)
	}

	slog.Info("Upload slot created.", "paperId", paperID, "userId", req.UserID)
	return &models.UploadResponse{
		PaperID:     paperID,
		UploadURL:   url,
		StoragePath: path.Object(),
		ExpiresAt:   expires.UTC().Format(time.RFC3339),
	}, nil
}
