package server

import (
	"time"

	"atscore/internal/analyzer"
	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/observability"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration and collaborators for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Analyzer      *analyzer.Analyzer
	AIComponents  map[string]common.AIComponent
	Observability *observability.ObservabilityManager

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host               string
	Port               string
	Version            string
	TLSConfig          config.TLSConfig
	APIKeys            []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration
	MaxRequestSize     int64
	RateLimit          *config.RateLimitConfig
}

// NewServerConfig derives a ServerConfig from the application configuration
func NewServerConfig(cfg *config.Config, version string) ServerConfig {
	rateLimit := cfg.Server.RateLimit
	return ServerConfig{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		Version:            version,
		TLSConfig:          cfg.Server.TLS,
		APIKeys:            cfg.Server.APIKeys,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		HealthCheckTimeout: cfg.Observability.HealthCheck.Timeout,
		MaxRequestSize:     cfg.Server.MaxRequestSize,
		RateLimit:          &rateLimit,
	}
}

// NewServer creates a new Server serving analyses from p. om may be nil,
// in which case tracing and metrics are disabled.
func NewServer(cfg ServerConfig, p *common.Pipeline, om *observability.ObservabilityManager, logger *errors.Logger) (*Server, error) {
	logger = errors.OrNop(logger)

	if om == nil {
		var err error
		om, err = observability.NewObservabilityManager(observability.ObservabilityConfig{ServiceName: "atscore"}, logger)
		if err != nil {
			return nil, err
		}
	}

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, cfg.RateLimit.IdleTimeout, logger)
	}

	healthTimeout := cfg.HealthCheckTimeout
	if healthTimeout <= 0 {
		healthTimeout = 10 * time.Second
	}

	return &Server{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Version:            cfg.Version,
		TLSConfig:          cfg.TLSConfig,
		APIKeys:            apiKeyMap,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		HealthCheckTimeout: healthTimeout,
		MaxRequestSize:     cfg.MaxRequestSize,
		RateLimit:          cfg.RateLimit,
		RateLimiter:        rateLimiter,
		Analyzer:           p.Analyzer,
		AIComponents:       p.AIComponents(),
		Observability:      om,
		Logger:             logger,
	}, nil
}
