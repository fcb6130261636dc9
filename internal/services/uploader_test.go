package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarstack/paperrag/internal/models"
	"github.com/scholarstack/paperrag/internal/rag"
)

func TestCreateSlot(t *testing.T) {
	papers := newFakePaperStore()
	f := NewUploaderWith(papers, &fakeSigner{})

	resp, err := f.CreateSlot(context.Background(), &models.UploadRequest{
		UserID:   "u1",
		FileName: "attention.pdf",
		Title:    "Attention Is All You Need",
		Authors:  []string{"Vaswani", "Shazeer"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.PaperID)
	assert.Contains(t, resp.UploadURL, resp.StoragePath)

	path, ok := ParseStoragePath(resp.StoragePath)
	require.True(t, ok)
	assert.Equal(t, "u1", path.UserID)
	assert.Equal(t, resp.PaperID, path.PaperID)
	assert.Equal(t, "attention.pdf", path.FileName)

	paper, err := papers.Get(context.Background(), resp.PaperID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, paper.Status)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, "u1", paper.OwnerUID)
}

func TestCreateSlotUniquePaperIDs(t *testing.T) {
	papers := newFakePaperStore()
	f := NewUploaderWith(papers, &fakeSigner{})

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		resp, err := f.CreateSlot(context.Background(), &models.UploadRequest{UserID: "u1", FileName: "a.pdf"})
		require.NoError(t, err)
		assert.False(t, seen[resp.PaperID])
		seen[resp.PaperID] = true
	}
}

func TestCreateSlotTitleFallsBackToFileName(t *testing.T) {
	papers := newFakePaperStore()
	f := NewUploaderWith(papers, &fakeSigner{})

	resp, err := f.CreateSlot(context.Background(), &models.UploadRequest{UserID: "u1", FileName: "scaling-laws.pdf"})
	require.NoError(t, err)

	paper, err := papers.Get(context.Background(), resp.PaperID)
	require.NoError(t, err)
	assert.Equal(t, "scaling-laws", paper.Title)

	// The extension is stripped regardless of its case.
	resp, err = f.CreateSlot(context.Background(), &models.UploadRequest{UserID: "u1", FileName: "Scaling-Laws.PDF"})
	require.NoError(t, err)
	paper, err = papers.Get(context.Background(), resp.PaperID)
	require.NoError(t, err)
	assert.Equal(t, "Scaling-Laws", paper.Title)
}

func TestCreateSlotValidation(t *testing.T) {
	f := NewUploaderWith(newFakePaperStore(), &fakeSigner{})

	cases := []models.UploadRequest{
		{UserID: "", FileName: "a.pdf"},
		{UserID: "u1", FileName: ""},
		{UserID: "u1", FileName: "  "},
		{UserID: "u1", FileName: "nested/path.pdf"},
		{UserID: "u1", FileName: "notes.txt"},
	}
	for _, req := range cases {
		_, err := f.CreateSlot(context.Background(), &req)
		assert.ErrorIs(t, err, rag.ErrValidation, "request %+v", req)
	}
}

func TestCreateSlotSignerFailure(t *testing.T) {
	papers := newFakePaperStore()
	f := NewUploaderWith(papers, &fakeSigner{err: errUpstream})

	_, err := f.CreateSlot(context.Background(), &models.UploadRequest{UserID: "u1", FileName: "a.pdf"})
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "validation"))
}
