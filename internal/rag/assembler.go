package rag

import (
	"fmt"
	"strings"
)

// NoContextFound is the sentinel context used when retrieval returns no
// passages. The answer model treats it as valid context and reports the gap
// to the user instead of failing.
const NoContextFound = "No relevant documents found."

// BuildContext renders ranked passages into a numbered, citation-ready
// context block. Passages are 1-indexed in ranked order so the answer
// model's bracketed citations line up with the returned source list.
func BuildContext(passages []ScoredChunk) string {
	if len(passages) == 0 {
		return NoContextFound
	}

	entries := make([]string, len(passages))
	for i, p := range passages {
		entries[i] = fmt.Sprintf("[%d] %s\nSource: %s", i+1, p.Content, formatAttribution(p))
	}
	return strings.Join(entries, "\n\n")
}

func formatAttribution(p ScoredChunk) string {
	title := p.Metadata.Title
	if title == "" {
		title = p.Metadata.FileName
	}
	attribution := title
	if len(p.Metadata.Authors) > 0 {
		attribution += " by " + strings.Join(p.Metadata.Authors, ", ")
	}
	return attribution
}
