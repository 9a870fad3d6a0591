package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, s Settings) (*Limiter, *fakeClock) {
	t.Helper()
	cfg := NewConfig(s)
	cfg.CleanupInterval = 0
	limiter := NewLimiter(cfg)
	t.Cleanup(limiter.Stop)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter.now = clock.Now
	return limiter, clock
}

func TestTokenBucket_Take(t *testing.T) {
	start := time.Now()
	bucket := newTokenBucket(10, 1.0, start)

	for i := 0; i < 10; i++ {
		allowed, _, _ := bucket.take(start)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
	allowed, remaining, reset := bucket.take(start)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, start.Add(10*time.Second), reset)

	// one token refills after a second
	allowed, _, _ = bucket.take(start.Add(time.Second))
	assert.True(t, allowed)
	allowed, _, _ = bucket.take(start.Add(time.Second))
	assert.False(t, allowed)
}

func TestTokenBucket_NeverExceedsCapacity(t *testing.T) {
	start := time.Now()
	bucket := newTokenBucket(3, 1.0, start)

	_, remaining, reset := bucket.take(start.Add(time.Hour))
	assert.Equal(t, 2, remaining)
	assert.Equal(t, start.Add(time.Hour+time.Second), reset)
}

func TestLimiter_DefaultBucket(t *testing.T) {
	limiter, clock := newTestLimiter(t, Settings{RequestsPerMinute: 60, Burst: 3})

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("10.0.0.1", fmt.Sprintf("/v1/matches?page=%d", i), "GET")
		require.True(t, allowed)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, "*", info.Scope)
	}

	// unmatched paths share the default bucket
	allowed, info := limiter.Allow("10.0.0.1", "/v1/profile", "GET")
	assert.False(t, allowed)
	assert.Equal(t, time.Second, info.RetryAfter)

	// other clients are independent
	allowed, _ = limiter.Allow("10.0.0.2", "/v1/profile", "GET")
	assert.True(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = limiter.Allow("10.0.0.1", "/v1/profile", "GET")
	assert.True(t, allowed)
}

func TestLimiter_MatchComputationIsStricter(t *testing.T) {
	limiter, clock := newTestLimiter(t, Settings{
		RequestsPerMinute:      600,
		Burst:                  100,
		MatchRequestsPerMinute: 6,
		MatchBurst:             2,
	})

	for i := 0; i < 2; i++ {
		allowed, info := limiter.Allow("client", "/v1/matches", "POST")
		require.True(t, allowed)
		assert.Equal(t, "POST /v1/matches", info.Scope)
	}
	allowed, info := limiter.Allow("client", "/v1/matches", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 6, info.Limit)
	assert.InDelta(t, float64(10*time.Second), float64(info.RetryAfter), float64(time.Millisecond))

	// reads are unaffected
	allowed, _ = limiter.Allow("client", "/v1/matches", "GET")
	assert.True(t, allowed)

	clock.Advance(11 * time.Second)
	allowed, _ = limiter.Allow("client", "/v1/matches", "POST")
	assert.True(t, allowed)
}

func TestLimiter_PrefixRuleSharesBucket(t *testing.T) {
	limiter, _ := newTestLimiter(t, Settings{RequestsPerMinute: 600, Burst: 100})

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("client", fmt.Sprintf("/v1/matches/%d/action", i), "PUT")
		require.True(t, allowed)
	}
	allowed, info := limiter.Allow("client", "/v1/matches/other/action", "PUT")
	assert.False(t, allowed)
	assert.Equal(t, "PUT /v1/matches/", info.Scope)
}

func TestLimiter_UnlimitedAndDisabled(t *testing.T) {
	limiter, _ := newTestLimiter(t, Settings{RequestsPerMinute: 1, Burst: 1})
	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("client", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("client", "/metrics", "GET")
		require.True(t, allowed)
	}

	disabled := NewLimiter(NewConfig(Settings{}))
	defer disabled.Stop()
	for i := 0; i < 20; i++ {
		allowed, info := disabled.Allow("client", "/v1/matches", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter, _ := newTestLimiter(t, Settings{RequestsPerMinute: 1, Burst: 1, Whitelist: []string{"127.0.0.1"}})
	limiter.config.Blacklist["6.6.6.6"] = true

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/v1/profile", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := limiter.Allow("6.6.6.6", "/v1/profile", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(t, Settings{RequestsPerMinute: 60, Burst: 50})

	var allowedCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("client", "/v1/profile", "GET"); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowedCount.Load())
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(t, Settings{RequestsPerMinute: 60, Burst: 1})

	limiter.Allow("old", "/v1/profile", "GET")
	clock.Advance(2 * time.Hour)
	limiter.Allow("fresh", "/v1/profile", "GET")

	limiter.cleanupBuckets(clock.Now().Add(-time.Hour))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "fresh|*")
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs(6, 2)

	tests := []struct {
		path, method string
		wantPath     string
		wantNil      bool
	}{
		{"/v1/matches", "POST", "/v1/matches", false},
		{"/v1/matches", "GET", "", true},
		{"/v1/matches/abc/action", "PUT", "/v1/matches/", false},
		{"/v1/profile", "PUT", "/v1/profile", false},
		{"/v1/profile", "GET", "", true},
		{"/health", "GET", "/health", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}

	assert.Len(t, DefaultEndpointConfigs(0, 0), 2)
}
