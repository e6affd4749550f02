package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"atscore/internal/aggregator"
	"atscore/internal/errors"
)

// Config holds all application configuration
// Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (ATSCORE_AI_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Feedback      FeedbackConfig      `mapstructure:"feedback"`
	AI            AIConfig            `mapstructure:"ai"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	v *viper.Viper
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	MinTextLength    int      `mapstructure:"minTextLength"`
}

// Similarity backends for the semantic skill-matching pass
const (
	SimilarityNone    = "none"
	SimilarityTrigram = "trigram"
	SimilarityGemini  = "gemini"
)

// ScoringConfig controls aggregation and skill matching
type ScoringConfig struct {
	Weights           WeightsConfig `mapstructure:"weights"`
	Similarity        string        `mapstructure:"similarity"`
	SemanticThreshold float64       `mapstructure:"semanticThreshold"`
	MaxStrengths      int           `mapstructure:"maxStrengths"`
	Sequential        bool          `mapstructure:"sequential"` // Run scorers one after another
	WatchConfig       bool          `mapstructure:"watchConfig"`
}

// WeightsConfig is the config file shape of the aggregation weights
type WeightsConfig struct {
	RuleChecks      float64 `mapstructure:"ruleChecks"`
	KeywordMatching float64 `mapstructure:"keywordMatching"`
	ImpactScore     float64 `mapstructure:"impactScore"`
	Formatting      float64 `mapstructure:"formatting"`
}

// Map converts the weights to the aggregator's key set
func (w WeightsConfig) Map() map[string]float64 {
	return map[string]float64{
		aggregator.KeyRuleChecks:      w.RuleChecks,
		aggregator.KeyKeywordMatching: w.KeywordMatching,
		aggregator.KeyImpactScore:     w.ImpactScore,
		aggregator.KeyFormatting:      w.Formatting,
	}
}

// Feedback modes
const (
	FeedbackModeRuleBased = "rule-based"
	FeedbackModeLLM       = "llm"
)

// FeedbackConfig selects the default feedback generator
type FeedbackConfig struct {
	Mode                string `mapstructure:"mode"`
	MinSuggestionLength int    `mapstructure:"minSuggestionLength"`
}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Operation-specific configurations
	Suggest    OperationAIConfig `mapstructure:"suggest"`
	Similarity OperationAIConfig `mapstructure:"similarity"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds inline prompts or paths to prompt files
type PromptConfig struct {
	SystemPrompt     string `mapstructure:"systemPrompt"`
	SystemPromptFile string `mapstructure:"systemPromptFile"`
	UserPrompt       string `mapstructure:"userPrompt"`
	UserPromptFile   string `mapstructure:"userPromptFile"`
}

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"maxEntries"` // memory backend only
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"keyPrefix"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication. Empty disables authentication.
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"` // required for mutual mode

	// PEM content, used when loaded from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"` // "1.2", "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`

	// IdleTimeout is how long an unused client bucket is kept
	IdleTimeout time.Duration `mapstructure:"idleTimeout"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations   AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	Pipeline       PipelineMetricsConfig       `mapstructure:"pipeline"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// PipelineMetricsConfig holds analysis pipeline metrics configuration
type PipelineMetricsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	TrackStages bool `mapstructure:"trackStages"`
	TrackScores bool `mapstructure:"trackScores"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackCache      bool `mapstructure:"trackCache"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from defaults, the environment and a
// config file. An empty configFile searches the standard locations.
func LoadConfig(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ATSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/atscore/")
		v.AddConfigPath("$HOME/.atscore")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}
	config.v = v

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, err
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. Invalid weights surface
// here, before any analysis runs.
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return invalid("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return invalid("server port is required")
	}

	validFormat := false
	for _, format := range c.App.SupportedFormats {
		if format == c.App.DefaultFormat {
			validFormat = true
		}
	}
	if !validFormat {
		return invalid(fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat))
	}

	switch c.Feedback.Mode {
	case FeedbackModeRuleBased, FeedbackModeLLM:
	default:
		return invalid(fmt.Sprintf("invalid feedback mode: %s (must be '%s' or '%s')",
			c.Feedback.Mode, FeedbackModeRuleBased, FeedbackModeLLM))
	}

	switch c.Scoring.Similarity {
	case SimilarityNone, SimilarityTrigram, SimilarityGemini:
	default:
		return invalid(fmt.Sprintf("invalid similarity backend: %s (must be 'none', 'trigram', or 'gemini')",
			c.Scoring.Similarity))
	}
	if c.Scoring.SemanticThreshold <= 0 || c.Scoring.SemanticThreshold > 1 {
		return invalid(fmt.Sprintf("semantic threshold must be in (0, 1], got %v", c.Scoring.SemanticThreshold))
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case CacheBackendMemory:
		case CacheBackendRedis:
			if c.Cache.Redis.Addr == "" {
				return invalid("cache.redis.addr is required for the redis backend")
			}
		default:
			return invalid(fmt.Sprintf("invalid cache backend: %s (must be 'memory' or 'redis')", c.Cache.Backend))
		}
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return err
	}

	return aggregator.ValidateWeights(c.Scoring.Weights.Map())
}

func invalid(msg string) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, msg, nil)
}
