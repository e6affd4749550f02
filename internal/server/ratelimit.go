package server

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"atscore/internal/errors"

	"golang.org/x/time/rate"
)

const defaultIdleTimeout = 10 * time.Minute

// Client kinds a bucket can be keyed by
const (
	limitByAPIKey = "api_key"
	limitByIP     = "ip"
)

// bucketKey identifies one client. API keys are stored as fingerprints.
type bucketKey struct {
	by string
	id string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. Buckets idle for longer
// than the idle timeout are evicted; the timeout is never shorter than the
// time a bucket needs to refill, so eviction grants no extra requests.
type RateLimiter struct {
	mu          sync.Mutex
	buckets     map[bucketKey]*bucket
	rate        rate.Limit
	burst       int
	idleTimeout time.Duration
	now         func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

// NewRateLimiter allows requestsPerMin sustained requests per client with
// bursts of up to burstCapacity.
func NewRateLimiter(requestsPerMin, burstCapacity int, idleTimeout time.Duration, logger *errors.Logger) *RateLimiter {
	if burstCapacity <= 0 {
		burstCapacity = 1
	}
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	rl := &RateLimiter{
		buckets: make(map[bucketKey]*bucket),
		rate:    rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burstCapacity,
		now:     time.Now,
		done:    make(chan struct{}),
		logger:  errors.OrNop(logger),
	}

	// Without refill a bucket must never be forgotten
	if rl.rate <= 0 {
		close(rl.done)
		return rl
	}
	refill := time.Duration(float64(burstCapacity) / float64(rl.rate) * float64(time.Second))
	rl.idleTimeout = max(idleTimeout, refill)

	go rl.evictLoop()
	return rl
}

// reserve takes a token for key. When none is left it reports how long the
// client should wait; zero means the bucket never refills.
func (rl *RateLimiter) reserve(key bucketKey) (bool, time.Duration) {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.buckets[key] = b
	}
	now := rl.now()
	b.lastSeen = now
	rl.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Stats reports bucket counts per client kind
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	byKind := map[string]int{limitByIP: 0, limitByAPIKey: 0}
	for key := range rl.buckets {
		byKind[key.by]++
	}

	return map[string]any{
		"enabled":           true,
		"active_buckets":    len(rl.buckets),
		"active_by_kind":    byKind,
		"rate_per_minute":   float64(rl.rate) * 60.0,
		"burst_capacity":    rl.burst,
		"idle_timeout_secs": rl.idleTimeout.Seconds(),
	}
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.idleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

// evictIdle drops buckets unused for longer than the idle timeout
func (rl *RateLimiter) evictIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.idleTimeout <= 0 {
		return 0
	}
	cutoff := rl.now().Add(-rl.idleTimeout)
	evicted := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			evicted++
		}
	}

	rl.logger.Debug("Idle rate limit buckets evicted",
		"evicted", evicted,
		"remaining", len(rl.buckets))
	return evicted
}

// Close stops eviction. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		select {
		case <-rl.done:
		default:
			close(rl.done)
		}
	})
}

// rateLimitMiddleware rejects requests whose client has no tokens left
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key, ok := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if !ok {
				next(w, r)
				return
			}

			allowed, wait := s.RateLimiter.reserve(key)
			if !allowed {
				s.Logger.Info("Rate limit exceeded",
					"limited_by", key.by,
					"endpoint", r.URL.Path,
					"retry_after", wait)
				s.Observability.Metrics().RateLimitHit(r.Context(), key.by)
				if wait > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				}
				writeErrorResponse(w, "Rate limit exceeded", "Too many analysis requests, retry later", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey picks the bucket for a request: the API key when limiting
// by key and one is present, else the client IP when limiting by IP
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) (bucketKey, bool) {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return bucketKey{by: limitByAPIKey, id: keyFingerprint(apiKey)}, true
		}
	}
	if byIP {
		return bucketKey{by: limitByIP, id: getClientIP(r)}, true
	}
	return bucketKey{}, false
}

func keyFingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}

// getClientIP prefers the first valid proxy-supplied address over RemoteAddr
func getClientIP(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		for candidate := range strings.SplitSeq(r.Header.Get(header), ",") {
			if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
				return addr.String()
			}
		}
	}
	if addrPort, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return addrPort.Addr().String()
	}
	return r.RemoteAddr
}
