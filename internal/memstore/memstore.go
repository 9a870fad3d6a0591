// Package memstore provides in-process implementations of the matchmaker
// stores, used for tests and for running without a database.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/strategic-matchmaker/internal/types"
)

type actionKey struct {
	user, matched uuid.UUID
}

// Store keeps profiles, analyses, matches and actions in memory.
// Values are copied on the way in and out.
type Store struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*types.Profile
	analyses map[uuid.UUID]*types.ProfileAnalysis
	matches  map[uuid.UUID][]types.MatchResult
	actions  map[actionKey]types.MatchAction
	now      func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		profiles: make(map[uuid.UUID]*types.Profile),
		analyses: make(map[uuid.UUID]*types.ProfileAnalysis),
		matches:  make(map[uuid.UUID][]types.MatchResult),
		actions:  make(map[actionKey]types.MatchAction),
		now:      time.Now,
	}
}

// UpsertProfile creates or replaces a profile, preserving its creation time.
func (s *Store) UpsertProfile(_ context.Context, p *types.Profile) (*types.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := copyProfile(p)
	if existing, ok := s.profiles[p.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.profiles[p.UserID] = stored
	return copyProfile(stored), nil
}

// GetProfile returns the profile for id, or nil when absent.
func (s *Store) GetProfile(_ context.Context, id uuid.UUID) (*types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return copyProfile(p), nil
}

// ListCompletedProfiles returns onboarded profiles ordered by creation time, then user id.
func (s *Store) ListCompletedProfiles(_ context.Context) ([]*types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.OnboardingComplete {
			out = append(out, copyProfile(p))
		}
	}
	slices.SortFunc(out, func(a, b *types.Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.UserID[:], b.UserID[:])
	})
	return out, nil
}

// GetAnalyses returns the analyses stored for ids.
func (s *Store) GetAnalyses(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*types.ProfileAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]*types.ProfileAnalysis, len(ids))
	for _, id := range ids {
		if a, ok := s.analyses[id]; ok {
			out[id] = copyAnalysis(a)
		}
	}
	return out, nil
}

// InsertAnalysisIfAbsent stores a unless an analysis exists for its user,
// and returns whichever analysis is stored.
func (s *Store) InsertAnalysisIfAbsent(_ context.Context, a *types.ProfileAnalysis) (*types.ProfileAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.analyses[a.UserID]; ok {
		return copyAnalysis(existing), nil
	}
	s.analyses[a.UserID] = copyAnalysis(a)
	return copyAnalysis(a), nil
}

// DeleteAnalysis removes the analysis for id.
func (s *Store) DeleteAnalysis(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.analyses, id)
	return nil
}

// ReplaceMatches atomically swaps the stored match set for userID.
func (s *Store) ReplaceMatches(_ context.Context, userID uuid.UUID, matches []types.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(matches) == 0 {
		delete(s.matches, userID)
		return nil
	}
	now := s.now().UTC()
	stored := make([]types.MatchResult, len(matches))
	for i, m := range matches {
		m.MatchedProfile = nil
		m.ActionStatus = ""
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		stored[i] = m
	}
	s.matches[userID] = stored
	return nil
}

// ListMatches returns the stored matches for userID in rank order.
func (s *Store) ListMatches(_ context.Context, userID uuid.UUID) ([]types.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.matches[userID])
	slices.SortStableFunc(out, func(a, b types.MatchResult) int { return a.Rank - b.Rank })
	return out, nil
}

// UpsertMatchAction records a requester's action on a matched user.
func (s *Store) UpsertMatchAction(_ context.Context, action *types.MatchAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *action
	stored.UpdatedAt = s.now().UTC()
	s.actions[actionKey{action.UserID, action.MatchedUserID}] = stored
	return nil
}

// ListMatchActions returns every action recorded by userID.
func (s *Store) ListMatchActions(_ context.Context, userID uuid.UUID) ([]types.MatchAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.MatchAction
	for key, action := range s.actions {
		if key.user == userID {
			out = append(out, action)
		}
	}
	slices.SortFunc(out, func(a, b types.MatchAction) int {
		return slices.Compare(a.MatchedUserID[:], b.MatchedUserID[:])
	})
	return out, nil
}

// MatchCount returns the number of stored matches for userID.
func (s *Store) MatchCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches[userID])
}

func copyProfile(p *types.Profile) *types.Profile {
	c := *p
	c.StrategicOutcomes = slices.Clone(p.StrategicOutcomes)
	c.CapitalLeverage = slices.Clone(p.CapitalLeverage)
	c.CounterpartyTypes = slices.Clone(p.CounterpartyTypes)
	c.AdjacentDomains = slices.Clone(p.AdjacentDomains)
	return &c
}

func copyAnalysis(a *types.ProfileAnalysis) *types.ProfileAnalysis {
	c := *a
	c.ContentTags = slices.Clone(a.ContentTags)
	c.PowerMap.Controls = slices.Clone(a.PowerMap.Controls)
	c.PowerMap.Seeks = slices.Clone(a.PowerMap.Seeks)
	return &c
}
