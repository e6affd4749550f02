package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"atscore/internal/config"
	atserrors "atscore/internal/errors"
	"atscore/internal/feedback"
)

const defaultModelCheckTimeout = 10 * time.Second

// retryBaseDelay is the first backoff step; later steps double it
var retryBaseDelay = time.Second

// GeminiProvider produces enhanced feedback suggestions with Google Gemini
type GeminiProvider struct {
	client            *genai.Client
	config            *config.OperationAIConfig
	circuitBreaker    *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker      *CircuitBreaker[*genai.Model]
	recorder          UsageRecorder
	modelCheckTimeout time.Duration
	logger            *atserrors.Logger
}

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *atserrors.Logger, opts ...ProviderOption) (*GeminiProvider, error) {
	logger = atserrors.OrNop(logger)
	o := collectOptions(opts)

	client, err := newGenAIClient(cfg, o)
	if err != nil {
		return nil, err
	}

	return &GeminiProvider{
		client:            client,
		config:            cfg,
		circuitBreaker:    NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:      NewModelCircuitBreaker(operationType, cfg, logger),
		recorder:          o.recorder,
		modelCheckTimeout: o.modelCheckTimeout,
		logger:            logger,
	}, nil
}

func newGenAIClient(cfg *config.OperationAIConfig, o providerOptions) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: *cfg.Timeout},
	}
	if o.baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, atserrors.NewAIError(atserrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}
	return client, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return modelInfo(ctx, g.client, g.modelBreaker, g.config, g.modelCheckTimeout, g.logger)
}

func modelInfo(ctx context.Context, client *genai.Client, breaker *CircuitBreaker[*genai.Model],
	cfg *config.OperationAIConfig, timeout time.Duration, logger *atserrors.Logger) *ModelInfo {
	info := &ModelInfo{Name: cfg.Model}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model, err := breaker.Execute(func() (*genai.Model, error) {
		return client.Models.Get(checkCtx, cfg.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		logger.Warn("Model availability check failed",
			"model", cfg.Model,
			"provider", cfg.Provider,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version

	logger.Debug("Model availability check successful",
		"model", cfg.Model,
		"provider", cfg.Provider,
		"display_name", info.DisplayName,
		"version", info.Version)
	return info
}

// executeWithRetry runs fn with retries and exponential backoff for transient errors
func executeWithRetry[T any](ctx context.Context, logger *atserrors.Logger, maxRetries int, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// backoff doubles retryBaseDelay per attempt, adds up to 10% jitter and caps at 30 seconds
func backoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * retryBaseDelay
	var jitter time.Duration
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// isRetryableError reports network failures and throttling or server-side API errors
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	code := 0
	var apiErr *googleapi.Error
	var genaiErr genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &genaiErr):
		code = genaiErr.Code
	}

	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// executeAIOperation runs a structured generation with tracing, circuit breaking,
// retries and JSON decoding of the response
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("atscore.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	callCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(callCtx, g.logger, *g.config.MaxRetries, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		code := atserrors.ErrCodeAIServiceFailed
		if errors.Is(err, context.DeadlineExceeded) {
			code = atserrors.ErrCodeAITimeout
		}
		return output, nil, atserrors.NewAIError(code, "Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, atserrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// Suggest asks the model for extra suggestions about an anonymized analysis.
// The returned payload is a JSON array; validating its items is left to the caller.
func (g *GeminiProvider) Suggest(ctx context.Context, summary feedback.SafeSummary) (json.RawMessage, error) {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, atserrors.NewInternalError("SUMMARY_ENCODING_FAILED", "failed to encode analysis summary", err)
	}
	systemPrompt, userPrompt := g.getPromptsForSuggest(string(payload))

	start := time.Now()
	output, tokenUsage, err := executeAIOperation[json.RawMessage](
		g,
		ctx,
		"suggest",
		userPrompt,
		systemPrompt,
		g.buildSuggestSchema(),
		attribute.Int("input.weak_points", len(summary.Issues.WeakPoints)),
		attribute.Int("input.missing_skills", summary.Issues.MissingSkills),
	)
	g.recorder.AIOperationCompleted(ctx, "suggest", g.config.Model, time.Since(start).Seconds(), tokenUsage, err)
	if err != nil {
		return nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.payload_bytes", len(output)))
	}
	return output, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close releases provider resources. The genai client holds none in unary mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// buildSuggestSchema constrains the response to an array of suggestion objects
func (g *GeminiProvider) buildSuggestSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": {Type: genai.TypeString},
					"priority": {
						Type: genai.TypeString,
						Enum: []string{"high", "medium", "low"},
					},
					"issue":      {Type: genai.TypeString},
					"suggestion": {Type: genai.TypeString},
					"impact":     {Type: genai.TypeString},
				},
				Required: []string{"category", "priority", "issue", "suggestion", "impact"},
			},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}
	return config
}

// getPromptsForSuggest returns the system prompt and the user prompt with the summary filled in
func (g *GeminiProvider) getPromptsForSuggest(summaryJSON string) (string, string) {
	loaded := config.GetPromptsForOperation(config.PromptOperationSuggest)

	systemPrompt := resolvePrompt(loaded.SystemPrompt, g.config.CustomPrompts.SystemPrompt, DefaultSystemPrompts.Suggest)
	userTemplate := resolvePrompt(loaded.UserPrompt, g.config.CustomPrompts.UserPrompt, DefaultUserPrompts.Suggest)

	if !strings.Contains(userTemplate, "%s") {
		return systemPrompt, userTemplate + "\n\n" + summaryJSON
	}
	return systemPrompt, fmt.Sprintf(userTemplate, summaryJSON)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// resolvePrompt prefers a prompt loaded from a file, then one set inline
// in the configuration, then the built-in default
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
