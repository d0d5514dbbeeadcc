package embedding

import "context"

// EmbeddingProvider generates a unit-normalized embedding vector for a text.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
