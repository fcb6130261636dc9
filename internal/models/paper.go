package models

import (
	"time"

	"cloud.google.com/go/firestore"
)

// Paper processing statuses. Transitions only move forward:
// processing -> completed, or processing -> error. A re-upload creates a
// fresh paper rather than resetting an existing one.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Paper is the master record for an uploaded research paper in Firestore.
// It is created when an upload slot is requested and mutated only by the
// ingestion pipeline afterwards.
type Paper struct {
	OwnerUID            string    `firestore:"ownerUid,omitempty"`
	Title               string    `firestore:"title,omitempty"`
	Authors             []string  `firestore:"authors,omitempty"`
	StoragePath         string    `firestore:"storagePath,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorMessage        string    `firestore:"errorMessage,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	ExtractedTextLength int       `firestore:"extractedTextLength,omitempty"`
	TextChunks          int       `firestore:"textChunks,omitempty"`
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
	UpdatedAt           time.Time `firestore:"updatedAt,omitempty"`
}

// ChunkMetadata travels with every indexed chunk so that retrieval results
// are self-describing and need no join against the papers collection.
type ChunkMetadata struct {
	PaperID     string    `firestore:"paperId" json:"paperId"`
	UserID      string    `firestore:"userId" json:"userId"`
	FileName    string    `firestore:"fileName" json:"fileName"`
	Title       string    `firestore:"title,omitempty" json:"title,omitempty"`
	Authors     []string  `firestore:"authors,omitempty" json:"authors,omitempty"`
	ChunkIndex  int       `firestore:"chunkIndex" json:"chunkIndex"`
	TotalChunks int       `firestore:"totalChunks" json:"totalChunks"`
	Source      string    `firestore:"source" json:"source"`
	Timestamp   time.Time `firestore:"timestamp" json:"timestamp"`
}

// IndexedChunk is a chunk plus its embedding, as stored in a data store
// collection. The embedding field backs Firestore vector search.
type IndexedChunk struct {
	Content    string             `firestore:"content"`
	Metadata   ChunkMetadata      `firestore:"metadata"`
	Embedding  firestore.Vector32 `firestore:"embedding"`
	IngestedAt time.Time          `firestore:"ingestedAt"`
}

// Source is the read-only projection of a retrieved passage returned to the
// caller and denormalized into the conversation record.
type Source struct {
	PaperID string   `firestore:"paperId" json:"paperId"`
	Title   string   `firestore:"title,omitempty" json:"title,omitempty"`
	Authors []string `firestore:"authors,omitempty" json:"authors,omitempty"`
	Content string   `firestore:"content" json:"content"`
	Score   float64  `firestore:"score" json:"score"`
}

// Conversation is the append-only record of one answered query.
type Conversation struct {
	UserID    string    `firestore:"userId"`
	Query     string    `firestore:"query"`
	Scope     string    `firestore:"scope"`
	Answer    string    `firestore:"answer"`
	Sources   []Source  `firestore:"sources"`
	Timestamp time.Time `firestore:"timestamp"`
}
