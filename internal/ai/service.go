package ai

import (
	"fmt"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/feedback"
)

// ProviderOption customizes model clients built by this package
type ProviderOption func(*providerOptions)

type providerOptions struct {
	baseURL           string
	recorder          UsageRecorder
	modelCheckTimeout time.Duration
}

// WithBaseURL points the client at a different API endpoint, such as a proxy
func WithBaseURL(url string) ProviderOption {
	return func(o *providerOptions) { o.baseURL = url }
}

// WithUsageRecorder reports request durations and token usage
func WithUsageRecorder(r UsageRecorder) ProviderOption {
	return func(o *providerOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithModelCheckTimeout bounds GetModelInfo
func WithModelCheckTimeout(d time.Duration) ProviderOption {
	return func(o *providerOptions) {
		if d > 0 {
			o.modelCheckTimeout = d
		}
	}
}

func collectOptions(opts []ProviderOption) providerOptions {
	o := providerOptions{
		recorder:          nopRecorder{},
		modelCheckTimeout: defaultModelCheckTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSuggestionProvider creates the enhanced feedback provider for the configured backend
func NewSuggestionProvider(cfg config.OperationAIConfig, logger *errors.Logger, opts ...ProviderOption) (*GeminiProvider, error) {
	logger = errors.OrNop(logger)
	if err := prepare(&cfg, logger, "suggest"); err != nil {
		return nil, err
	}

	provider, err := NewGeminiProvider(&cfg, "suggest", logger, opts...)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create AI provider", err)
	}
	return provider, nil
}

// NewSimilarity creates the embedding similarity for the configured backend
func NewSimilarity(cfg config.OperationAIConfig, logger *errors.Logger, opts ...ProviderOption) (*EmbeddingSimilarity, error) {
	logger = errors.OrNop(logger)
	if err := prepare(&cfg, logger, "similarity"); err != nil {
		return nil, err
	}

	similarity, err := NewEmbeddingSimilarity(&cfg, logger, opts...)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create embedding client", err)
	}
	return similarity, nil
}

// NewProviderFactory builds suggestion providers for API keys supplied per request
func NewProviderFactory(cfg config.OperationAIConfig, logger *errors.Logger, opts ...ProviderOption) func(apiKey string) (feedback.SuggestionProvider, error) {
	return func(apiKey string) (feedback.SuggestionProvider, error) {
		perRequest := cfg
		perRequest.APIKey = apiKey
		return NewSuggestionProvider(perRequest, logger, opts...)
	}
}

// prepare checks the provider and key and fills settings left unset
func prepare(cfg *config.OperationAIConfig, logger *errors.Logger, operationType string) error {
	switch cfg.Provider {
	case "gemini", "":
		cfg.Provider = "gemini"
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if cfg.APIKey == "" {
		return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("an API key is required for the %s operation", operationType), nil)
	}

	if cfg.Timeout == nil {
		d := 30 * time.Second
		cfg.Timeout = &d
	}
	if cfg.MaxRetries == nil {
		n := 0
		cfg.MaxRetries = &n
	}
	if cfg.Temperature == nil {
		var t float32
		cfg.Temperature = &t
	}
	if cfg.UseSystemPrompts == nil {
		b := true
		cfg.UseSystemPrompts = &b
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)
	return nil
}
