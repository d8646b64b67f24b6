// Package embedding turns text into vectors through an embedding provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ProbeText is embedded once per run to discover the vector size
const ProbeText = "dimension probe"

// ErrEmptyEmbedding is returned when the provider answers without a vector
var ErrEmptyEmbedding = errors.New("embedding provider returned an empty vector")

// Service generates embeddings. Vectors have a fixed size per model.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// ProbeDimension embeds ProbeText and returns the resulting vector size
func ProbeDimension(ctx context.Context, svc Service) (int, error) {
	vec, err := svc.Embed(ctx, ProbeText)
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", ErrEmptyEmbedding)
	}
	return len(vec), nil
}
