package observability

import (
	"context"
	"fmt"
	"testing"

	"atscore/internal/ai"
	"atscore/internal/analyzer"
	"atscore/internal/config"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, flags config.CustomMetricsConfig) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), flags)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

// collect returns the number of data points per instrument name
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	points := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points[m.Name] += int(dp.Value)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					points[m.Name] += int(dp.Count)
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					points[m.Name] += int(dp.Count)
				}
			}
		}
	}
	return points
}

func TestPipelineMetrics(t *testing.T) {
	m, reader := newTestMetrics(t, allCustomMetrics())
	ctx := context.Background()

	m.StageCompleted(ctx, analyzer.StageExtract, 0.01, false)
	m.StageCompleted(ctx, analyzer.StageSkills, 0.02, true)
	m.AnalysisCompleted(ctx, analyzer.StatusSuccess, 0.5, 82.5)
	m.AnalysisCompleted(ctx, analyzer.StatusError, 0.1, 0)
	m.CacheLookup(ctx, true)
	m.CacheLookup(ctx, false)
	m.RateLimitHit(ctx, "ip")

	got := collect(t, reader)
	want := map[string]int{
		"atscore_stage_duration_seconds":    2,
		"atscore_stage_failures_total":      1,
		"atscore_analyses_total":            2,
		"atscore_analysis_duration_seconds": 2,
		"atscore_ats_score":                 1,
		"atscore_cache_hits_total":          1,
		"atscore_cache_misses_total":        1,
		"atscore_http_rate_limited_total":   1,
	}
	for name, n := range want {
		if got[name] != n {
			t.Errorf("%s = %d, want %d", name, got[name], n)
		}
	}
}

func TestAIOperationMetrics(t *testing.T) {
	m, reader := newTestMetrics(t, allCustomMetrics())
	ctx := context.Background()

	usage := &ai.TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120}
	m.AIOperationCompleted(ctx, "suggest", "gemini-2.0-flash", 1.2, usage, nil)
	m.AIOperationCompleted(ctx, "embed", "text-embedding-004", 0.3, nil, fmt.Errorf("quota exceeded"))

	got := collect(t, reader)
	if got["atscore_ai_requests_total"] != 2 {
		t.Errorf("requests = %d", got["atscore_ai_requests_total"])
	}
	if got["atscore_ai_errors_total"] != 1 {
		t.Errorf("errors = %d", got["atscore_ai_errors_total"])
	}
	if got["atscore_ai_tokens_total"] != 240 {
		t.Errorf("tokens = %d, want input+output+total", got["atscore_ai_tokens_total"])
	}
	if got["atscore_ai_request_duration_seconds"] != 2 {
		t.Errorf("durations = %d", got["atscore_ai_request_duration_seconds"])
	}
}

func TestMetricFlags(t *testing.T) {
	flags := allCustomMetrics()
	flags.Pipeline.TrackStages = false
	flags.Pipeline.TrackScores = false
	flags.Infrastructure.TrackCache = false
	flags.AIOperations.Enabled = false

	m, reader := newTestMetrics(t, flags)
	ctx := context.Background()

	m.StageCompleted(ctx, analyzer.StageImpact, 0.01, false)
	m.AnalysisCompleted(ctx, analyzer.StatusSuccess, 0.2, 90)
	m.CacheLookup(ctx, true)
	m.RateLimitHit(ctx, "api_key")
	m.AIOperationCompleted(ctx, "suggest", "m", 1, nil, nil)

	got := collect(t, reader)
	for _, name := range []string{"atscore_stage_duration_seconds", "atscore_ats_score", "atscore_cache_hits_total", "atscore_ai_requests_total"} {
		if got[name] != 0 {
			t.Errorf("%s should be disabled, got %d", name, got[name])
		}
	}
	if got["atscore_analyses_total"] != 1 || got["atscore_http_rate_limited_total"] != 1 {
		t.Errorf("enabled metrics missing: %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.StageCompleted(ctx, "x", 1, true)
	m.AnalysisCompleted(ctx, analyzer.StatusSuccess, 1, 1)
	m.CacheLookup(ctx, true)
	m.RateLimitHit(ctx, "ip")
	m.AIOperationCompleted(ctx, "suggest", "m", 1, nil, nil)
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "atscore"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if om.Metrics() != nil {
		t.Error("disabled manager should not create metrics")
	}
	if om.Tracer("test") == nil {
		t.Error("disabled manager should hand out a noop tracer")
	}
	if err := om.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestEnabledManagerWithManualReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	cfg := GetObservabilityConfig(nil, "test")
	cfg.ConsoleOutput = false
	cfg.Prometheus.Enabled = false
	cfg.ServiceInstance = "atscore-test"

	om, err := NewObservabilityManager(cfg, nil, WithMetricReader(reader))
	if err != nil {
		t.Fatalf("NewObservabilityManager() error = %v", err)
	}
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	om.Metrics().CacheLookup(context.Background(), false)
	if got := collect(t, reader)["atscore_cache_misses_total"]; got != 1 {
		t.Errorf("cache misses = %d", got)
	}
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "atscore"
	cfg.Observability.SampleRate = 1
	cfg.Observability.Tracing = config.TracingConfig{Enabled: true, SampleRate: 0.25}

	got := GetObservabilityConfig(cfg, "1.2.3")
	if got.ServiceVersion != "1.2.3" {
		t.Errorf("ServiceVersion = %q, want app version fallback", got.ServiceVersion)
	}
	if got.SampleRate != 0.25 {
		t.Errorf("SampleRate = %v", got.SampleRate)
	}
	if got.Interval <= 0 {
		t.Error("collection interval should default")
	}

	cfg.Observability.Tracing.Enabled = false
	if got := GetObservabilityConfig(cfg, "1.2.3"); got.SampleRate != 0 {
		t.Errorf("disabled tracing should sample nothing, got %v", got.SampleRate)
	}
}
