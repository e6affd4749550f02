package common

import (
	"context"
	"fmt"

	"atscore/internal/ai"
	"atscore/internal/analyzer"
	"atscore/internal/cache"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/extractor"
	"atscore/internal/skills"
)

// Recorder receives both pipeline and model request measurements
type Recorder interface {
	analyzer.Recorder
	ai.UsageRecorder
}

// Pipeline is a configured analyzer plus the resources it owns
type Pipeline struct {
	Analyzer *analyzer.Analyzer

	// Suggest is set when enhanced feedback has a configured key
	Suggest *ai.GeminiProvider
	// Similarity is set when scoring.similarity is "gemini"
	Similarity *ai.EmbeddingSimilarity

	cache  cache.Cache
	logger *errors.Logger
}

// BuildPipeline wires an analyzer from configuration. rec may be nil.
func BuildPipeline(ctx context.Context, cfg *config.Config, logger *errors.Logger, rec Recorder) (*Pipeline, error) {
	logger = errors.OrNop(logger)
	p := &Pipeline{cache: cache.Nop{}, logger: logger}

	var aiOpts []ai.ProviderOption
	if cfg.Observability.HealthCheck.AIModelCheckTimeout > 0 {
		aiOpts = append(aiOpts, ai.WithModelCheckTimeout(cfg.Observability.HealthCheck.AIModelCheckTimeout))
	}
	if rec != nil {
		aiOpts = append(aiOpts, ai.WithUsageRecorder(rec))
	}

	opts := []analyzer.Option{
		analyzer.WithLogger(logger),
		analyzer.WithExtractor(extractor.New(cfg.App.MaxFileSize, logger)),
		analyzer.WithWeights(cfg.Scoring.Weights.Map()),
		analyzer.WithMinTextLength(cfg.App.MinTextLength),
		analyzer.WithMaxStrengths(cfg.Scoring.MaxStrengths),
		analyzer.WithMinSuggestionLength(cfg.Feedback.MinSuggestionLength),
		analyzer.WithProviderFactory(analyzer.ProviderFactory(ai.NewProviderFactory(cfg.GetSuggestConfig(), logger, aiOpts...))),
	}
	if cfg.Scoring.Sequential {
		opts = append(opts, analyzer.WithSequential())
	}
	if rec != nil {
		opts = append(opts, analyzer.WithRecorder(rec))
	}

	similarity, err := p.buildSimilarity(cfg, aiOpts)
	if err != nil {
		return nil, err
	}
	if similarity != nil {
		opts = append(opts, analyzer.WithSimilarity(similarity, cfg.Scoring.SemanticThreshold))
	}

	if cfg.Feedback.Mode == config.FeedbackModeLLM {
		if cfg.LLMFeedbackAvailable() {
			provider, err := ai.NewSuggestionProvider(cfg.GetSuggestConfig(), logger, aiOpts...)
			if err != nil {
				return nil, err
			}
			p.Suggest = provider
			opts = append(opts, analyzer.WithSuggestionProvider(provider))
		} else {
			logger.Warn("LLM feedback mode configured without an API key, requests must supply their own")
		}
	}

	if cfg.Cache.Enabled {
		p.cache = buildCache(ctx, cfg.Cache, logger)
		opts = append(opts, analyzer.WithCache(p.cache, cfg.Cache.TTL))
	}

	a, err := analyzer.New(opts...)
	if err != nil {
		_ = p.Close()
		return nil, errors.NewConfigError(errors.ErrCodeInvalidWeights, "invalid scoring configuration", err)
	}
	p.Analyzer = a

	logger.Debug("Analysis pipeline ready",
		"similarity", cfg.Scoring.Similarity,
		"feedback_mode", cfg.Feedback.Mode,
		"cache", p.cache.Backend(),
		"sequential", cfg.Scoring.Sequential)

	return p, nil
}

func (p *Pipeline) buildSimilarity(cfg *config.Config, aiOpts []ai.ProviderOption) (skills.Similarity, error) {
	switch cfg.Scoring.Similarity {
	case config.SimilarityTrigram:
		return skills.TrigramSimilarity{}, nil
	case config.SimilarityGemini:
		sim, err := ai.NewSimilarity(cfg.GetSimilarityConfig(), p.logger, aiOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding similarity: %w", err)
		}
		p.Similarity = sim
		return sim, nil
	default:
		return nil, nil
	}
}

// buildCache returns the configured cache, or the no-op cache when the
// backend cannot be reached. Analyses never fail because of the cache.
func buildCache(ctx context.Context, cfg config.CacheConfig, logger *errors.Logger) cache.Cache {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		c, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			logger.LogError(err, "Result cache disabled")
			return cache.Nop{}
		}
		return c
	default:
		return cache.NewMemory(cfg.MaxEntries)
	}
}

// WatchWeights hot-reloads aggregation weights when scoring.watchConfig is
// set and a config file is in use
func (p *Pipeline) WatchWeights(cfg *config.Config) bool {
	if !cfg.Scoring.WatchConfig {
		return false
	}
	return cfg.WatchWeights(p.logger, p.Analyzer.SetWeights)
}

// AIComponents returns the model-backed collaborators by operation name
func (p *Pipeline) AIComponents() map[string]AIComponent {
	out := map[string]AIComponent{}
	if p.Suggest != nil {
		out["suggest"] = p.Suggest
	}
	if p.Similarity != nil {
		out["similarity"] = p.Similarity
	}
	return out
}

// AIComponent is a model-backed collaborator that reports its health
type AIComponent interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	GetCircuitBreakerStats() map[string]any
}

// Close releases the cache connection and model clients
func (p *Pipeline) Close() error {
	var first error
	if p.Suggest != nil {
		if err := p.Suggest.Close(); err != nil {
			first = err
		}
	}
	if err := p.cache.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
