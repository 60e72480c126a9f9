package backend

import (
	"context"
	"fmt"
)

// ModelSummary describes one foundation model reported by the backend's
// models endpoint.
type ModelSummary struct {
	ModelID                    string   `json:"model_id"`
	ModelName                  string   `json:"model_name"`
	ProviderName               string   `json:"provider_name"`
	InputModalities            []string `json:"input_modalities,omitempty"`
	OutputModalities           []string `json:"output_modalities,omitempty"`
	ResponseStreamingSupported bool     `json:"response_streaming_supported"`
}

type modelsResponse struct {
	Models     []ModelSummary `json:"models"`
	TotalCount int            `json:"total_count"`
}

// ListModels fetches the catalog of models the backend can serve.
func (c *Client) ListModels(ctx context.Context) ([]ModelSummary, error) {
	var resp modelsResponse
	if err := c.get(ctx, "/models", &resp); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return resp.Models, nil
}
