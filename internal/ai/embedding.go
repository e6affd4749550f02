package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"atscore/internal/config"
	atserrors "atscore/internal/errors"
)

const (
	embeddingTaskType      = "SEMANTIC_SIMILARITY"
	defaultEmbeddingCacheN = 4096
)

// EmbeddingSimilarity scores skill pairs by cosine similarity of Gemini
// text embeddings. Vectors are cached per normalized phrase.
type EmbeddingSimilarity struct {
	client            *genai.Client
	config            *config.OperationAIConfig
	breaker           *CircuitBreaker[*genai.EmbedContentResponse]
	modelBreaker      *CircuitBreaker[*genai.Model]
	recorder          UsageRecorder
	modelCheckTimeout time.Duration
	logger            *atserrors.Logger

	mu       sync.Mutex
	vectors  map[string][]float32
	maxCache int
}

// NewEmbeddingSimilarity creates an embedding-backed similarity for skill matching
func NewEmbeddingSimilarity(cfg *config.OperationAIConfig, logger *atserrors.Logger, opts ...ProviderOption) (*EmbeddingSimilarity, error) {
	logger = atserrors.OrNop(logger)
	o := collectOptions(opts)

	client, err := newGenAIClient(cfg, o)
	if err != nil {
		return nil, err
	}

	return &EmbeddingSimilarity{
		client:            client,
		config:            cfg,
		breaker:           NewEmbeddingCircuitBreaker("similarity", cfg, logger),
		modelBreaker:      NewModelCircuitBreaker("similarity", cfg, logger),
		recorder:          o.recorder,
		modelCheckTimeout: o.modelCheckTimeout,
		logger:            logger,
		vectors:           make(map[string][]float32),
		maxCache:          defaultEmbeddingCacheN,
	}, nil
}

// Similarity returns the cosine similarity of the two phrases clamped to [0, 1]
func (e *EmbeddingSimilarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := e.embed(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return max(cosine(vectors[0], vectors[1]), 0), nil
}

// GetModelInfo checks the readiness of the embedding model
func (e *EmbeddingSimilarity) GetModelInfo(ctx context.Context) *ModelInfo {
	return modelInfo(ctx, e.client, e.modelBreaker, e.config, e.modelCheckTimeout, e.logger)
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (e *EmbeddingSimilarity) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"embedding_operations": e.breaker.GetStats(),
		"model_operations":     e.modelBreaker.GetStats(),
		"overall_healthy":      e.breaker.IsHealthy() && e.modelBreaker.IsHealthy(),
	}
}

// embed returns one vector per text, requesting only the uncached ones in a single batch
func (e *EmbeddingSimilarity) embed(ctx context.Context, texts ...string) ([][]float32, error) {
	keys := make([]string, len(texts))
	var missing []string
	seen := map[string]bool{}

	e.mu.Lock()
	for i, t := range texts {
		keys[i] = strings.ToLower(strings.TrimSpace(t))
		if _, ok := e.vectors[keys[i]]; !ok && !seen[keys[i]] {
			missing = append(missing, keys[i])
			seen[keys[i]] = true
		}
	}
	e.mu.Unlock()

	fetched := map[string][]float32{}
	if len(missing) > 0 {
		vectors, err := e.request(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i, k := range missing {
			fetched[k] = vectors[i]
		}
		e.store(fetched)
	}

	out := make([][]float32, len(texts))
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, k := range keys {
		if v, ok := fetched[k]; ok {
			out[i] = v
		} else {
			out[i] = e.vectors[k]
		}
	}
	return out, nil
}

func (e *EmbeddingSimilarity) store(vectors map[string][]float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.vectors)+len(vectors) > e.maxCache {
		e.vectors = make(map[string][]float32, len(vectors))
	}
	for k, v := range vectors {
		e.vectors[k] = v
	}
}

func (e *EmbeddingSimilarity) request(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := otel.Tracer("atscore.ai.gemini").Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", e.config.Model),
		attribute.Int("input.texts", len(texts)),
	)

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	callCtx, cancel := context.WithTimeout(ctx, *e.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.breaker.Execute(func() (*genai.EmbedContentResponse, error) {
		return executeWithRetry(callCtx, e.logger, *e.config.MaxRetries, "embed", func() (*genai.EmbedContentResponse, error) {
			return e.client.Models.EmbedContent(callCtx, e.config.Model, contents,
				&genai.EmbedContentConfig{TaskType: embeddingTaskType})
		})
	})
	if err == nil && (resp == nil || len(resp.Embeddings) != len(texts)) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		err = fmt.Errorf("expected %d embeddings, got %d", len(texts), got)
	}
	e.recorder.AIOperationCompleted(ctx, "embed", e.config.Model, time.Since(start).Seconds(), nil, err)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, atserrors.NewAIError(atserrors.ErrCodeAIServiceFailed, "Failed to embed skill phrases", err)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb != nil {
			vectors[i] = emb.Values
		}
	}
	span.SetAttributes(attribute.Bool("success", true))
	return vectors, nil
}

// cosine returns 0 when either vector is empty, zero or of a different length
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
