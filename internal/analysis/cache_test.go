package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/strategic-matchmaker/internal/memstore"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

func countingCreate(calls *atomic.Int32, source types.AnalysisSource) CreateFunc {
	return func(_ context.Context, p *types.Profile) (*types.ProfileAnalysis, error) {
		calls.Add(1)
		return &types.ProfileAnalysis{ContentTags: []string{p.PrimaryInterest}, Source: source}, nil
	}
}

func TestGetOrCreate_CreatesOnceAndReuses(t *testing.T) {
	store := memstore.New()
	c := NewCache(store, Policy{}, nil, nil)
	profile := &types.Profile{UserID: uuid.New(), PrimaryInterest: "AI"}
	var calls atomic.Int32

	first, err := c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)
	assert.Equal(t, profile.UserID, first.UserID)
	assert.False(t, first.AnalyzedAt.IsZero())

	profile.PrimaryInterest = "Edited"
	second, err := c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"AI"}, second.ContentTags)
}

func TestGetOrCreate_ReadsThroughToStore(t *testing.T) {
	store := memstore.New()
	profile := &types.Profile{UserID: uuid.New()}
	_, err := store.InsertAnalysisIfAbsent(t.Context(), &types.ProfileAnalysis{
		UserID: profile.UserID, ContentTags: []string{"stored"}, AnalyzedAt: time.Now(),
	})
	require.NoError(t, err)
	var calls atomic.Int32

	got, err := NewCache(store, Policy{}, nil, nil).GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)
	assert.Equal(t, []string{"stored"}, got.ContentTags)
	assert.Zero(t, calls.Load())
}

func TestGetOrCreate_ConcurrentCallersShareCreation(t *testing.T) {
	c := NewCache(memstore.New(), Policy{}, nil, nil)
	profile := &types.Profile{UserID: uuid.New()}
	var calls atomic.Int32
	release := make(chan struct{})
	create := func(_ context.Context, _ *types.Profile) (*types.ProfileAnalysis, error) {
		calls.Add(1)
		<-release
		return &types.ProfileAnalysis{Source: types.AnalysisSourceModel}, nil
	}

	var wg sync.WaitGroup
	results := make([]*types.ProfileAnalysis, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := c.GetOrCreate(context.Background(), profile, create)
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// late arrivals may miss the in-flight call but then hit the local layer
	assert.Equal(t, int32(1), calls.Load())
	for _, a := range results {
		assert.Equal(t, profile.UserID, a.UserID)
	}
}

func TestGetOrCreate_CreateError(t *testing.T) {
	c := NewCache(memstore.New(), Policy{}, nil, nil)
	boom := errors.New("boom")

	_, err := c.GetOrCreate(t.Context(), &types.Profile{UserID: uuid.New()},
		func(context.Context, *types.Profile) (*types.ProfileAnalysis, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestPeek_DoesNotCreate(t *testing.T) {
	store := memstore.New()
	c := NewCache(store, Policy{}, nil, nil)
	withAnalysis := uuid.New()
	without := uuid.New()
	_, err := store.InsertAnalysisIfAbsent(t.Context(), &types.ProfileAnalysis{UserID: withAnalysis, AnalyzedAt: time.Now()})
	require.NoError(t, err)

	got, err := c.Peek(t.Context(), []uuid.UUID{withAnalysis, without})
	require.NoError(t, err)
	assert.Contains(t, got, withAnalysis)
	assert.NotContains(t, got, without)

	stored, err := store.GetAnalyses(t.Context(), []uuid.UUID{without})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestInvalidate_ForcesRecreation(t *testing.T) {
	store := memstore.New()
	c := NewCache(store, Policy{}, nil, nil)
	profile := &types.Profile{UserID: uuid.New(), PrimaryInterest: "AI"}
	var calls atomic.Int32

	_, err := c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceFallback))
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(t.Context(), profile.UserID))

	peeked, err := c.Peek(t.Context(), []uuid.UUID{profile.UserID})
	require.NoError(t, err)
	assert.Empty(t, peeked)

	profile.PrimaryInterest = "Energy"
	got, err := c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"Energy"}, got.ContentTags)
}

func TestPolicy_MaxAgeExpiresAnalyses(t *testing.T) {
	store := memstore.New()
	c := NewCache(store, Policy{MaxAge: time.Hour}, nil, nil)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	profile := &types.Profile{UserID: uuid.New(), PrimaryInterest: "AI"}
	var calls atomic.Int32

	_, err := c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Hour)
	peeked, err := c.Peek(t.Context(), []uuid.UUID{profile.UserID})
	require.NoError(t, err)
	assert.Empty(t, peeked)

	got, err := c.GetOrCreate(t.Context(), profile, countingCreate(&calls, types.AnalysisSourceModel))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, now, got.AnalyzedAt)
}
