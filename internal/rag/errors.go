// Package rag holds the retrieval-augmented generation gateways: embedding,
// retrieval, context assembly and answer generation.
package rag

import "errors"

// Error kinds for the ingestion and query pipelines. Stage errors wrap one
// of these so callers can classify failures with errors.Is without parsing
// messages.
var (
	ErrValidation  = errors.New("validation failed")
	ErrExtraction  = errors.New("text extraction failed")
	ErrEmbedding   = errors.New("embedding failed")
	ErrRetrieval   = errors.New("retrieval failed")
	ErrGeneration  = errors.New("answer generation failed")
	ErrPersistence = errors.New("persistence failed")

	// ErrQueryFailed is the only error the query pipeline exposes to end
	// users. The underlying cause is logged server-side, never returned.
	ErrQueryFailed = errors.New("query failed")
)
