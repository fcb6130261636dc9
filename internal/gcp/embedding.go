package gcp

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// EmbeddingClient wraps the Vertex AI prediction endpoint for a text
// embedding model.
type EmbeddingClient struct {
	client   *aiplatform.PredictionClient
	endpoint string
}

// NewEmbeddingClient creates a prediction client pinned to the regional
// endpoint for the given embedding model.
func NewEmbeddingClient(ctx context.Context, projectID, region, modelName string) (*EmbeddingClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewEmbeddingClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}

	apiEndpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)
	client, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(apiEndpoint))
	if err != nil {
		return nil, fmt.Errorf("aiplatform.NewPredictionClient: %w", err)
	}

	return &EmbeddingClient{
		client:   client,
		endpoint: fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", projectID, region, modelName),
	}, nil
}

// Predict embeds a single text. The task type distinguishes stored document
// chunks from ad-hoc queries; the model optimizes the vector accordingly.
func (c *EmbeddingClient) Predict(ctx context.Context, text, taskType string) ([]float32, error) {
	instance, err := structpb.NewStruct(map[string]any{
		"content":   text,
		"task_type": taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build predict instance: %w", err)
	}

	resp, err := c.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  c.endpoint,
		Instances: []*structpb.Value{structpb.NewStructValue(instance)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding predict call failed: %w", err)
	}
	if len(resp.GetPredictions()) == 0 {
		return nil, fmt.Errorf("embedding predict returned no predictions")
	}

	embeddings := resp.GetPredictions()[0].GetStructValue().GetFields()["embeddings"]
	if embeddings == nil {
		return nil, fmt.Errorf("embedding predict response missing embeddings field")
	}
	values := embeddings.GetStructValue().GetFields()["values"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding predict returned an empty vector")
	}

	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v.GetNumberValue())
	}
	return vector, nil
}

func (c *EmbeddingClient) Close() error {
	return c.client.Close()
}
