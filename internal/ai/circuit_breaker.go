package ai

import (
	"fmt"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"atscore/internal/config"
	"atscore/internal/errors"
)

// CircuitBreaker guards one kind of model call. A nil breaker runs calls directly.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewAICircuitBreaker creates the breaker for content generation of an operation
func NewAICircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *CircuitBreaker[*genai.GenerateContentResponse] {
	return newCircuitBreaker[*genai.GenerateContentResponse](
		fmt.Sprintf("AI-%s", operationType), operationType, cfg, ratioTrip(cfg.CircuitBreaker), logger)
}

// NewEmbeddingCircuitBreaker creates the breaker for embedding requests
func NewEmbeddingCircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *CircuitBreaker[*genai.EmbedContentResponse] {
	return newCircuitBreaker[*genai.EmbedContentResponse](
		fmt.Sprintf("AI-Embed-%s", operationType), operationType, cfg, ratioTrip(cfg.CircuitBreaker), logger)
}

// NewModelCircuitBreaker creates the breaker for model availability checks
func NewModelCircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *CircuitBreaker[*genai.Model] {
	// Model info is less critical, so it trips later
	lenient := func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 5 && failureRatio >= 0.8
	}
	return newCircuitBreaker[*genai.Model](
		fmt.Sprintf("AI-Model-%s", operationType), operationType, cfg, lenient, logger)
}

func ratioTrip(cfg config.CircuitBreakerConfig) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
	}
}

func newCircuitBreaker[T any](name, operationType string, cfg *config.OperationAIConfig, readyToTrip func(gobreaker.Counts) bool, logger *errors.Logger) *CircuitBreaker[T] {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}
	logger = errors.OrNop(logger)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operationType,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.CircuitBreaker.MaxRequests,
				"failure_threshold", cfg.CircuitBreaker.FailureThreshold)
		},
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn with circuit breaker protection
func (cb *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker[T]) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is closed or absent
func (cb *CircuitBreaker[T]) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
