package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atscore/internal/types"
)

func sampleResult(score float64) *types.UnifiedResult {
	return &types.UnifiedResult{
		ATSScore:      score,
		MatchedSkills: []types.MatchedSkill{{ResumeSkill: "go", JobSkill: "go", MatchType: types.MatchExact, Confidence: 1}},
		MissingSkills: []string{"rust"},
		Strengths:     []string{},
		Metadata:      types.Metadata{AnalysisVersion: types.AnalysisVersion, Grade: "B"},
	}
}

func TestKey(t *testing.T) {
	weights := map[string]float64{"rule_checks": 0.25, "keyword_matching": 0.35, "impact_score": 0.25, "formatting": 0.15}
	jd := "Go developer"
	empty := ""

	base := Key("Jane Doe\nEngineer", &jd, "rule-based", weights)

	assert.Equal(t, base, Key("Jane   Doe \n\n Engineer", &jd, "rule-based", weights), "whitespace should not change the key")
	assert.Len(t, base, 64)

	others := []string{
		Key("Jane Doe\nEngineer", nil, "rule-based", weights),
		Key("Jane Doe\nEngineer", &empty, "rule-based", weights),
		Key("Jane Doe\nEngineer", &jd, "llm-based", weights),
		Key("Jane Doe\nEngineer", &jd, "rule-based", map[string]float64{"rule_checks": 1}),
		Key("Jane Doe\nManager", &jd, "rule-based", weights),
	}
	seen := map[string]bool{base: true}
	for i, k := range others {
		assert.False(t, seen[k], "key %d collides", i)
		seen[k] = true
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", sampleResult(82.5), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 82.5, got.ATSScore)
	assert.Equal(t, []string{"rust"}, got.MissingSkills)

	got.MissingSkills[0] = "mutated"
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "rust", again.MissingSkills[0], "stored entry must not alias returned values")

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should have expired")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", sampleResult(1), time.Minute))
	require.NoError(t, c.Set(ctx, "long", sampleResult(2), time.Hour))
	require.NoError(t, c.Set(ctx, "long", sampleResult(3), time.Hour))
	assert.Equal(t, 2, c.Len(), "overwriting must not evict")

	require.NoError(t, c.Set(ctx, "new", sampleResult(4), time.Hour))
	assert.Equal(t, 2, c.Len())

	_, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok, "entry closest to expiry should be evicted")
	got, ok, _ := c.Get(ctx, "long")
	require.True(t, ok)
	assert.Equal(t, 3.0, got.ATSScore)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, BackendRedis, c.Backend())

	_, ok, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "abc", sampleResult(91), 10*time.Minute))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"abc"))

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 91.0, got.ATSScore)
	assert.Equal(t, "B", got.Metadata.Grade)

	mr.FastForward(11 * time.Minute)
	_, ok, err = c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, mr.Set("test:bad", "{not json"))
	_, ok, err := c.Get(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisRequiresAddress(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", sampleResult(1), time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
