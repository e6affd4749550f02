package observability

import (
	"time"

	"atscore/internal/config"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	Interval        time.Duration
	Prometheus      PrometheusConfig
	OTLP            config.OTLPConfig
	CustomMetrics   config.CustomMetricsConfig
}

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		// Fallback to defaults if config not available
		return ObservabilityConfig{
			ServiceName:    "atscore",
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Interval:       15 * time.Second,
			Prometheus:     GetPrometheusConfig(nil),
			CustomMetrics:  allCustomMetrics(),
		}
	}

	obsConfig := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	sampleRate := obsConfig.SampleRate
	if !obsConfig.Tracing.Enabled {
		sampleRate = 0
	} else if obsConfig.Tracing.SampleRate > 0 && obsConfig.Tracing.SampleRate < sampleRate {
		sampleRate = obsConfig.Tracing.SampleRate
	}

	interval := obsConfig.Metrics.CollectionInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return ObservabilityConfig{
		ServiceName:     obsConfig.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obsConfig.ServiceInstance,
		Enabled:         obsConfig.Enabled,
		ConsoleOutput:   obsConfig.ConsoleOutput || obsConfig.Console.Enabled,
		PrettyPrint:     obsConfig.Console.PrettyPrint,
		SampleRate:      sampleRate,
		Interval:        interval,
		Prometheus:      GetPrometheusConfig(cfg),
		OTLP:            obsConfig.OTLP,
		CustomMetrics:   obsConfig.CustomMetrics,
	}
}

func allCustomMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations:   config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		Pipeline:       config.PipelineMetricsConfig{Enabled: true, TrackStages: true, TrackScores: true},
		Infrastructure: config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackCache: true},
	}
}
