package rag

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/scholarstack/paperrag/internal/gcp"
)

// Generator synthesizes a cited answer from a query and an assembled
// context block.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) (string, error)
}

// VertexGenerator is the production Generator backed by a Gemini model.
type VertexGenerator struct {
	model *genai.GenerativeModel
}

func NewVertexGenerator(client *gcp.VertexClient) *VertexGenerator {
	return &VertexGenerator{model: client.AnswerModel}
}

func (g *VertexGenerator) Generate(ctx context.Context, query, contextText string) (string, error) {
	prompt := fmt.Sprintf(gcp.AnswerUserPromptTemplate, contextText, query)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	answer := extractText(resp)
	if answer == "" {
		return "", fmt.Errorf("%w: model returned no text candidates", ErrGeneration)
	}
	return answer, nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
