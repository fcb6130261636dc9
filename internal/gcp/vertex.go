package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Answer Model Prompts ---
const AnswerSystemPrompt = "You are a research assistant answering questions about academic papers. You answer strictly from the provided context passages and cite your sources."
const AnswerUserPromptTemplate = `Answer the question using ONLY the numbered context passages below.

Follow these instructions precisely:
1. Base every statement on the context. Do not use outside knowledge.
2. Cite passages with bracketed numbers matching the context numbering, e.g. [1] or [2][3].
3. If the context does not contain enough information to answer, say so explicitly instead of guessing.
4. Keep the answer concise and factual.

Context:
%s

Question: %s`

// VertexClient holds the pre-configured generative model used for answer
// synthesis.
type VertexClient struct {
	AnswerModel *genai.GenerativeModel
	baseClient  *genai.Client
}

// NewVertexClient creates a new client holding the answer model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	answerModel := baseClient.GenerativeModel(modelName)
	answerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AnswerSystemPrompt)},
	}
	answerModel.GenerationConfig = genai.GenerationConfig{
		// Low temperature for grounded, reproducible answers.
		Temperature:     genai.Ptr[float32](0.2),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: genai.Ptr[int32](1024),
	}

	return &VertexClient{
		AnswerModel: answerModel,
		baseClient:  baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
