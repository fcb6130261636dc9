package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholarstack/paperrag/internal/rag"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	cases := map[string][]byte{
		"empty":      nil,
		"plain text": []byte("just some words"),
		"png header": {0x89, 'P', 'N', 'G', 0x0d, 0x0a},
		"html":       []byte("<!doctype html><html></html>"),
	}
	for name, data := range cases {
		_, _, err := ExtractText(data)
		assert.ErrorIs(t, err, rag.ErrExtraction, name)
	}
}

func TestExtractTextRejectsTruncatedPDF(t *testing.T) {
	// Valid magic bytes but no document body.
	_, _, err := ExtractText([]byte("%PDF-1.7\n"))
	assert.ErrorIs(t, err, rag.ErrExtraction)
}
