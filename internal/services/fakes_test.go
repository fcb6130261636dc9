package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
)

// In-memory collaborator doubles for the orchestrator tests.

type fakePaperStore struct {
	mu     sync.Mutex
	papers map[string]*models.Paper

	// failStatus makes SetStatus fail when writing this specific status.
	failStatus        string
	failMarkCompleted bool

	statusWrites   []string
	terminalWrites int
}

func newFakePaperStore() *fakePaperStore {
	return &fakePaperStore{papers: make(map[string]*models.Paper)}
}

func (s *fakePaperStore) Get(_ context.Context, paperID string) (*models.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paper, ok := s.papers[paperID]
	if !ok {
		return nil, fmt.Errorf("%w: paper %s not found", rag.ErrPersistence, paperID)
	}
	copied := *paper
	return &copied, nil
}

func (s *fakePaperStore) Create(_ context.Context, paperID string, paper *models.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.papers[paperID]; exists {
		return fmt.Errorf("%w: paper %s already exists", rag.ErrPersistence, paperID)
	}
	copied := *paper
	s.papers[paperID] = &copied
	return nil
}

func (s *fakePaperStore) SetStatus(_ context.Context, paperID, status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus != "" && status == s.failStatus {
		return fmt.Errorf("%w: status write refused", rag.ErrPersistence)
	}
	paper, ok := s.papers[paperID]
	if !ok {
		return fmt.Errorf("%w: paper %s not found", rag.ErrPersistence, paperID)
	}
	paper.Status = status
	paper.ErrorMessage = errorMessage
	paper.UpdatedAt = time.Now()
	s.statusWrites = append(s.statusWrites, status)
	if status == models.StatusCompleted || status == models.StatusError {
		s.terminalWrites++
	}
	return nil
}

func (s *fakePaperStore) MarkCompleted(_ context.Context, paperID string, textChunks, textLength, pageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkCompleted {
		return fmt.Errorf("%w: completion write refused", rag.ErrPersistence)
	}
	paper, ok := s.papers[paperID]
	if !ok {
		return fmt.Errorf("%w: paper %s not found", rag.ErrPersistence, paperID)
	}
	paper.Status = models.StatusCompleted
	paper.TextChunks = textChunks
	paper.ExtractedTextLength = textLength
	paper.PageCount = pageCount
	paper.UpdatedAt = time.Now()
	s.statusWrites = append(s.statusWrites, models.StatusCompleted)
	s.terminalWrites++
	return nil
}

type fakeBlobStore struct {
	objects map[string][]byte
	err     error
}

func (s *fakeBlobStore) Download(_ context.Context, objectName string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectName)
	}
	return data, nil
}

// fakeEmbedder returns a deterministic unit vector per text and counts
// calls so tests can assert which stages ran.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *fakeEmbedder) Embed(_ context.Context, text, _ string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	var h uint32
	for _, c := range text {
		h = h*31 + uint32(c)
	}
	return []float32{float32(h%97) / 97, float32(h%89) / 89, 1}, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	answer   string
	err      error
	queries  []string
	contexts []string
}

func (g *fakeGenerator) Generate(_ context.Context, query, contextText string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.queries = append(g.queries, query)
	g.contexts = append(g.contexts, contextText)
	if g.err != nil {
		return "", g.err
	}
	if g.answer == "" {
		return "According to the context [1], it works.", nil
	}
	return g.answer, nil
}

type fakeConversationStore struct {
	mu    sync.Mutex
	saved map[string]*models.Conversation
	err   error
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{saved: make(map[string]*models.Conversation)}
}

func (s *fakeConversationStore) Save(_ context.Context, id string, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := *conv
	s.saved[id] = &copied
	return nil
}

func (s *fakeConversationStore) List(_ context.Context, userID string, limit int) ([]models.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ConversationSummary
	for id, conv := range s.saved {
		if conv.UserID != userID {
			continue
		}
		out = append(out, models.ConversationSummary{
			ID:        id,
			Query:     conv.Query,
			Scope:     conv.Scope,
			Answer:    conv.Answer,
			Sources:   conv.Sources,
			Timestamp: conv.Timestamp.UTC().Format(time.RFC3339),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeSigner struct {
	err error
}

func (s *fakeSigner) Sign(objectName, _ string, ttl time.Duration) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "https://storage.example.com/" + objectName, time.Now().Add(ttl), nil
}

var errUpstream = errors.New("upstream unavailable")
