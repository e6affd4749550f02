// Package cache stores finished analysis results keyed by their inputs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"atscore/internal/types"
)

// Backend names
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache is a result store. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*types.UnifiedResult, bool, error)
	Set(ctx context.Context, key string, result *types.UnifiedResult, ttl time.Duration) error
	Backend() string
	Close() error
}

// Key derives the cache key for one analysis. The resume text is compared
// after whitespace normalization so re-extracted documents hit the same entry.
func Key(resumeText string, jobDescription *string, feedbackMode string, weights map[string]float64) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	write(strings.Join(strings.Fields(resumeText), " "))
	if jobDescription == nil {
		write("jd:absent")
	} else {
		write("jd:present")
		write(*jobDescription)
	}
	write(feedbackMode)

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write(name + "=" + strconv.FormatFloat(weights[name], 'g', -1, 64))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string) (*types.UnifiedResult, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, *types.UnifiedResult, time.Duration) error { return nil }

func (Nop) Backend() string { return BackendNone }

func (Nop) Close() error { return nil }
