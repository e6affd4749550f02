package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"

	"atscore/internal/errors"
)

// healthHandler reports service status and, when model-backed components
// are configured, whether their models are reachable
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atscore",
		"version": s.Version,
		"cache":   s.Analyzer.CacheBackend(),
	}

	status := http.StatusOK
	if len(s.AIComponents) > 0 {
		aiStatus, healthy := s.checkAIModelsHealth(r.Context())
		response["ai_models"] = aiStatus
		response["circuit_breakers"] = s.circuitBreakerStats()
		if !healthy {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response, s.Logger)
}

// checkAIModelsHealth asks every model-backed component for its model info
func (s *Server) checkAIModelsHealth(ctx context.Context) (map[string]any, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.HealthCheckTimeout)
	defer cancel()

	healthy := true
	aiStatus := make(map[string]any, len(s.AIComponents))
	for name, component := range s.AIComponents {
		info := component.GetModelInfo(ctx)
		if info == nil || !info.Available {
			healthy = false
		}
		aiStatus[name] = info
	}
	return aiStatus, healthy
}

func (s *Server) circuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(s.AIComponents))
	for name, component := range s.AIComponents {
		stats[name] = component.GetCircuitBreakerStats()
	}
	return stats
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	components := make([]string, 0, len(s.AIComponents))
	for name := range s.AIComponents {
		components = append(components, name)
	}
	sort.Strings(components)

	response := map[string]any{
		"service": "atscore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
		"analyzer": map[string]any{
			"cache_backend": s.Analyzer.CacheBackend(),
			"weights":       s.Analyzer.Weights(),
			"ai_components": components,
		},
		"circuit_breakers": s.circuitBreakerStats(),
	}

	if s.RateLimiter != nil {
		stats := s.RateLimiter.Stats()
		stats["by_ip"] = s.RateLimit.ByIP
		stats["by_api_key"] = s.RateLimit.ByAPIKey
		response["rate_limiting"] = stats
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	writeJSON(w, http.StatusOK, response, s.Logger)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%s", bodyErrorMessage(err))
	}
	defer func() { _ = r.Body.Close() }()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// bodyErrorMessage explains a request body read failure
func bodyErrorMessage(err error) string {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
	}
	return fmt.Sprintf("failed to read request body: %v", err)
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, v any, logger *errors.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errors.OrNop(logger).LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, errorTitle, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: errorTitle, Message: message}, nil)
}
