// Package analysis caches one semantic profile analysis per user.
//
// The default policy keeps an analysis forever: profile edits do not refresh
// it until Invalidate is called or a MaxAge is configured.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/strategic-matchmaker/internal/metrics"
	"github.com/jonathan/strategic-matchmaker/internal/observability"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// DefaultLocalTTL bounds how long a process keeps an analysis in memory
// before rereading it from the store.
const DefaultLocalTTL = 10 * time.Minute

// Store persists analyses keyed by user id.
type Store interface {
	// GetAnalyses returns the stored analyses for ids; missing ids are absent from the map.
	GetAnalyses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*types.ProfileAnalysis, error)
	// InsertAnalysisIfAbsent stores a unless one already exists, and returns the stored analysis.
	InsertAnalysisIfAbsent(ctx context.Context, a *types.ProfileAnalysis) (*types.ProfileAnalysis, error)
	// DeleteAnalysis removes the analysis for id. Deleting a missing analysis is not an error.
	DeleteAnalysis(ctx context.Context, id uuid.UUID) error
}

// CreateFunc produces a fresh analysis for a profile.
type CreateFunc func(ctx context.Context, profile *types.Profile) (*types.ProfileAnalysis, error)

// Policy controls analysis freshness.
type Policy struct {
	// MaxAge treats analyses older than this as absent. Zero keeps them forever.
	MaxAge time.Duration
	// LocalTTL bounds the in-process layer. Zero means DefaultLocalTTL.
	LocalTTL time.Duration
}

// Cache is a read-or-create cache of profile analyses backed by a Store.
type Cache struct {
	store   Store
	policy  Policy
	local   *cache.Cache
	group   singleflight.Group
	logger  *zap.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// NewCache creates a Cache over store.
func NewCache(store Store, policy Policy, logger *zap.Logger, m *metrics.Manager) *Cache {
	ttl := policy.LocalTTL
	if ttl <= 0 {
		ttl = DefaultLocalTTL
	}
	if policy.MaxAge > 0 && policy.MaxAge < ttl {
		ttl = policy.MaxAge
	}

	return &Cache{
		store:   store,
		policy:  policy,
		local:   cache.New(ttl, 2*ttl),
		logger:  observability.OrNop(logger),
		metrics: m,
		now:     time.Now,
	}
}

// GetOrCreate returns the cached analysis for profile, calling create when
// none exists or the existing one is expired. Concurrent calls for the same
// user share a single creation.
func (c *Cache) GetOrCreate(ctx context.Context, profile *types.Profile, create CreateFunc) (*types.ProfileAnalysis, error) {
	key := profile.UserID.String()

	if a, ok := c.fromLocal(key); ok {
		c.metrics.RecordAnalysisLookup(true)
		return a, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		stored, err := c.store.GetAnalyses(ctx, []uuid.UUID{profile.UserID})
		if err != nil {
			return nil, fmt.Errorf("load analysis: %w", err)
		}

		if a, ok := stored[profile.UserID]; ok {
			if c.fresh(a) {
				c.metrics.RecordAnalysisLookup(true)
				c.local.Set(key, a, cache.DefaultExpiration)
				return a, nil
			}
			if err := c.store.DeleteAnalysis(ctx, profile.UserID); err != nil {
				return nil, fmt.Errorf("expire analysis: %w", err)
			}
		}
		c.metrics.RecordAnalysisLookup(false)

		created, err := create(ctx, profile)
		if err != nil {
			return nil, fmt.Errorf("create analysis: %w", err)
		}
		created.UserID = profile.UserID
		if created.AnalyzedAt.IsZero() {
			created.AnalyzedAt = c.now().UTC()
		}

		// another writer may have won the race; its row is authoritative
		winner, err := c.store.InsertAnalysisIfAbsent(ctx, created)
		if err != nil {
			return nil, fmt.Errorf("store analysis: %w", err)
		}

		c.logger.Info("profile analysis created",
			zap.String(observability.FieldRequesterID, key),
			zap.String(observability.FieldAnalysisSrc, string(winner.Source)),
		)
		c.local.Set(key, winner, cache.DefaultExpiration)
		return winner, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.ProfileAnalysis), nil
}

// Peek returns the cached analyses for ids without creating any.
// Ids without a fresh analysis are absent from the result.
func (c *Cache) Peek(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*types.ProfileAnalysis, error) {
	out := make(map[uuid.UUID]*types.ProfileAnalysis, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		if a, ok := c.fromLocal(id.String()); ok {
			out[id] = a
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	stored, err := c.store.GetAnalyses(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("load analyses: %w", err)
	}
	for id, a := range stored {
		if !c.fresh(a) {
			continue
		}
		c.local.Set(id.String(), a, cache.DefaultExpiration)
		out[id] = a
	}
	return out, nil
}

// Invalidate drops the analysis for id so the next GetOrCreate recreates it.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	c.local.Delete(id.String())
	if err := c.store.DeleteAnalysis(ctx, id); err != nil {
		return fmt.Errorf("invalidate analysis: %w", err)
	}
	c.logger.Info("profile analysis invalidated", zap.String(observability.FieldRequesterID, id.String()))
	return nil
}

func (c *Cache) fromLocal(key string) (*types.ProfileAnalysis, bool) {
	v, found := c.local.Get(key)
	if !found {
		return nil, false
	}
	a := v.(*types.ProfileAnalysis)
	if !c.fresh(a) {
		c.local.Delete(key)
		return nil, false
	}
	return a, true
}

func (c *Cache) fresh(a *types.ProfileAnalysis) bool {
	if c.policy.MaxAge <= 0 {
		return true
	}
	return c.now().Sub(a.AnalyzedAt) <= c.policy.MaxAge
}
