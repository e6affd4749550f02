package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// DefaultKeyPrefix namespaces analysis entries in a shared Redis
const DefaultKeyPrefix = "atscore:analysis:"

// RedisConfig holds the connection settings of a Redis cache
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// Redis stores results as JSON strings with a TTL
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis, instruments the client with OpenTelemetry
// tracing and verifies the connection with a ping
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "redis address is required", nil)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, errors.NewInternalError(errors.ErrCodeCacheFailed,
			"failed to instrument Redis with OpenTelemetry", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeCacheFailed,
			fmt.Sprintf("failed to connect to Redis at %s", cfg.Addr), err)
	}

	return &Redis{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*types.UnifiedResult, bool, error) {
	payload, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewNetworkError(errors.ErrCodeCacheFailed, "redis get failed", err)
	}

	var result types.UnifiedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, errors.NewInternalError(errors.ErrCodeCacheFailed, "corrupt cache entry", err)
	}
	return &result, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, result *types.UnifiedResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeCacheFailed, "failed to encode result", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, payload, ttl).Err(); err != nil {
		return errors.NewNetworkError(errors.ErrCodeCacheFailed, "redis set failed", err)
	}
	return nil
}

func (r *Redis) Backend() string { return BackendRedis }

func (r *Redis) Close() error {
	return r.client.Close()
}
