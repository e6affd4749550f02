package ai

import (
	"context"

	"atscore/internal/feedback"
	"atscore/internal/skills"
)

// SuggestionService is a model-backed source of enhanced feedback
type SuggestionService interface {
	feedback.SuggestionProvider
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}

// UsageRecorder receives one call per completed model request
type UsageRecorder interface {
	AIOperationCompleted(ctx context.Context, operation, model string, seconds float64, usage *TokenUsage, err error)
}

type nopRecorder struct{}

func (nopRecorder) AIOperationCompleted(context.Context, string, string, float64, *TokenUsage, error) {}

var (
	_ SuggestionService = (*GeminiProvider)(nil)
	_ skills.Similarity = (*EmbeddingSimilarity)(nil)
)
