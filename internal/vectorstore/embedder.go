package vectorstore

import (
	"context"

	"cmp-dialogue/internal/ai"
	"cmp-dialogue/internal/retry"
)

type embeddingClient interface {
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

// RetryingEmbedder applies the retry policy to every embedding request,
// independently of the storage retries around it.
type RetryingEmbedder struct {
	client embeddingClient
	cfg    ai.EmbeddingConfig
	policy retry.Policy
}

func NewRetryingEmbedder(client embeddingClient, cfg ai.EmbeddingConfig, policy retry.Policy) *RetryingEmbedder {
	return &RetryingEmbedder{client: client, cfg: cfg, policy: policy.Named("embedding")}
}

func (e *RetryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return retry.Do(ctx, e.policy, func(ctx context.Context) ([][]float32, error) {
		return e.client.EmbedBatch(ctx, e.cfg, texts)
	}, retry.IsTransientExternal)
}
