// Package chunker splits extracted document text into overlapping,
// retrieval-sized passages with sentence-boundary awareness.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap are the parameters used by
	// the ingestion pipeline.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// MinChunkLength is the noise floor: chunks at or below this trimmed
	// length are discarded.
	MinChunkLength = 50

	// sentenceCutoff is how far into the window a sentence boundary must
	// lie for the chunk to be cut there instead of at the window edge.
	sentenceCutoff = 0.7
)

// Split divides text into chunks of up to size bytes, each overlapping the
// previous one by up to overlap bytes. Within each window the last sentence
// terminator ('.' or newline) is preferred as the cut point when it lies
// past sentenceCutoff of the window. Window-edge cuts and overlap re-entry
// points are snapped back to rune boundaries, so every chunk of valid UTF-8
// input is itself valid UTF-8. Chunks whose trimmed length is at or below
// MinChunkLength are dropped as noise.
//
// Split is pure and deterministic. It always terminates: even when
// overlap >= size, the cursor advances by at least one rune per iteration.
func Split(text string, size, overlap int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	n := len(text)
	start := 0
	for start < n {
		end := start + size
		if end >= n {
			end = n
		} else {
			end = runeStart(text, end)
			if end <= start {
				end = nextRune(text, start)
			}
		}

		cut := end
		if end < n {
			if brk := lastBreak(text, start, end); brk >= 0 && float64(brk-start) > sentenceCutoff*float64(size) {
				cut = brk + 1
			}
		}

		chunk := strings.TrimSpace(text[start:cut])
		if len(chunk) > MinChunkLength {
			chunks = append(chunks, chunk)
		}

		if cut >= n {
			break
		}
		next := runeStart(text, cut-overlap)
		if next <= start {
			next = nextRune(text, start)
		}
		start = next
	}
	return chunks
}

// runeStart walks i back to the first byte of the rune it falls inside.
func runeStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// nextRune returns the index just past the rune starting at i.
func nextRune(text string, i int) int {
	_, w := utf8.DecodeRuneInString(text[i:])
	if w == 0 {
		return i + 1
	}
	return i + w
}

// lastBreak returns the index of the last sentence terminator in
// text[start:end], or -1 if there is none.
func lastBreak(text string, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if text[i] == '.' || text[i] == '\n' {
			return i
		}
	}
	return -1
}
