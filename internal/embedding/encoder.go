package embedding

import "context"

// Encoder turns text into embedding vectors via a hosted embeddings API.
// EmbedBatch must return one vector per input text, in input order.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
