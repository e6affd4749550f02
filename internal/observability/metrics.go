package observability

import (
	"context"
	"fmt"

	"atscore/internal/ai"
	"atscore/internal/analyzer"
	"atscore/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom instruments for atscore. All methods are safe on
// a nil receiver.
type Metrics struct {
	flags config.CustomMetricsConfig

	// Analysis pipeline metrics
	AnalysesTotal    metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
	StageDuration    metric.Float64Histogram
	StageFailures    metric.Int64Counter
	ATSScore         metric.Float64Histogram

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Counter

	// Infrastructure metrics
	RateLimitHits metric.Int64Counter
	CacheHits     metric.Int64Counter
	CacheMisses   metric.Int64Counter
}

var (
	_ analyzer.Recorder = (*Metrics)(nil)
	_ ai.UsageRecorder  = (*Metrics)(nil)
)

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter, flags config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{flags: flags}

	if err := m.createPipelineMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createAIMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createInfrastructureMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

// createPipelineMetrics creates analysis pipeline metrics
func (m *Metrics) createPipelineMetrics(meter metric.Meter) error {
	var err error

	m.AnalysesTotal, err = meter.Int64Counter(
		"atscore_analyses_total",
		metric.WithDescription("Total number of resume analyses by status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analyses metric: %w", err)
	}

	m.AnalysisDuration, err = meter.Float64Histogram(
		"atscore_analysis_duration_seconds",
		metric.WithDescription("End-to-end analysis duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	m.StageDuration, err = meter.Float64Histogram(
		"atscore_stage_duration_seconds",
		metric.WithDescription("Duration of each analysis stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage duration metric: %w", err)
	}

	m.StageFailures, err = meter.Int64Counter(
		"atscore_stage_failures_total",
		metric.WithDescription("Analysis stages that failed or fell back to a default"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage failures metric: %w", err)
	}

	m.ATSScore, err = meter.Float64Histogram(
		"atscore_ats_score",
		metric.WithDescription("Distribution of final ATS scores"),
		metric.WithExplicitBucketBoundaries(50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create ATS score metric: %w", err)
	}

	return nil
}

// createAIMetrics creates AI-related metrics
func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"atscore_ai_request_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"atscore_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"atscore_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Counter(
		"atscore_ai_tokens_total",
		metric.WithDescription("Tokens consumed by AI requests (input, output, total)"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates rate limit and cache metrics
func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"atscore_http_rate_limited_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	m.CacheHits, err = meter.Int64Counter(
		"atscore_cache_hits_total",
		metric.WithDescription("Analyses served from the result cache"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache hits metric: %w", err)
	}

	m.CacheMisses, err = meter.Int64Counter(
		"atscore_cache_misses_total",
		metric.WithDescription("Result cache lookups that found nothing"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache misses metric: %w", err)
	}

	return nil
}

// StageCompleted records one pipeline stage
func (m *Metrics) StageCompleted(ctx context.Context, stage string, seconds float64, failed bool) {
	if m == nil || !m.flags.Pipeline.Enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	if m.flags.Pipeline.TrackStages {
		m.StageDuration.Record(ctx, seconds, attrs)
	}
	if failed {
		m.StageFailures.Add(ctx, 1, attrs)
	}
}

// AnalysisCompleted records a finished analysis
func (m *Metrics) AnalysisCompleted(ctx context.Context, status string, seconds, score float64) {
	if m == nil || !m.flags.Pipeline.Enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.AnalysesTotal.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, seconds, attrs)
	if m.flags.Pipeline.TrackScores && status == analyzer.StatusSuccess {
		m.ATSScore.Record(ctx, score)
	}
}

// CacheLookup records a result cache hit or miss
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	if m == nil || !m.flags.Infrastructure.Enabled || !m.flags.Infrastructure.TrackCache {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
		return
	}
	m.CacheMisses.Add(ctx, 1)
}

// RateLimitHit records a request rejected by the rate limiter
func (m *Metrics) RateLimitHit(ctx context.Context, limitedBy string) {
	if m == nil || !m.flags.Infrastructure.Enabled || !m.flags.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limited_by", limitedBy)))
}

// AIOperationCompleted records one model request
func (m *Metrics) AIOperationCompleted(ctx context.Context, operation, model string, seconds float64, usage *ai.TokenUsage, err error) {
	if m == nil || !m.flags.AIOperations.Enabled {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	}

	if m.flags.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, seconds, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if usage != nil && m.flags.AIOperations.TrackTokenUsage {
		m.recordTokenMetrics(ctx, usage, attrs)
	}
}

// recordTokenMetrics records individual token usage metrics
func (m *Metrics) recordTokenMetrics(ctx context.Context, usage *ai.TokenUsage, attrs []attribute.KeyValue) {
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}

	for _, tt := range tokenTypes {
		tokenAttrs := append(attrs[:len(attrs):len(attrs)], attribute.String("token_type", tt.tokenType))
		m.AITokenUsage.Add(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}
