// Package matching orchestrates one match computation per requester: it scores
// every eligible candidate, ranks and truncates the result, asks for rationale
// on the top slice and atomically replaces the requester's stored match set.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/strategic-matchmaker/internal/analysis"
	"github.com/jonathan/strategic-matchmaker/internal/enrichment"
	"github.com/jonathan/strategic-matchmaker/internal/metrics"
	"github.com/jonathan/strategic-matchmaker/internal/observability"
	"github.com/jonathan/strategic-matchmaker/internal/scoring"
	"github.com/jonathan/strategic-matchmaker/internal/similarity"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// User-facing messages.
const (
	NoticeInsufficientData = "Not enough profiles for matching"
	MessageNotOnboarded    = "Complete onboarding first"
	WarningNotPersisted    = "Matches were computed but could not be saved; previous matches are unchanged"
)

// ProfileStore reads participant profiles.
type ProfileStore interface {
	// ListCompletedProfiles returns onboarded profiles ordered by creation time, then user id.
	ListCompletedProfiles(ctx context.Context) ([]*types.Profile, error)
	// GetProfile returns the profile for id, or nil when absent.
	GetProfile(ctx context.Context, id uuid.UUID) (*types.Profile, error)
}

// MatchStore persists match sets and the requester's actions on them.
type MatchStore interface {
	// ReplaceMatches atomically replaces every stored match of userID with matches.
	ReplaceMatches(ctx context.Context, userID uuid.UUID, matches []types.MatchResult) error
	ListMatches(ctx context.Context, userID uuid.UUID) ([]types.MatchResult, error)
	UpsertMatchAction(ctx context.Context, action *types.MatchAction) error
	ListMatchActions(ctx context.Context, userID uuid.UUID) ([]types.MatchAction, error)
}

// Dependencies are the collaborators of a Service.
type Dependencies struct {
	Profiles ProfileStore
	Matches  MatchStore
	Analyses *analysis.Cache
	Enricher enrichment.Enricher
	Scorer   *scoring.Scorer
	Logger   *zap.Logger
	Metrics  *metrics.Manager
}

// Result is the outcome of one match computation.
type Result struct {
	Matches   []types.MatchResult `json:"matches"`
	Notice    string              `json:"notice,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
	Persisted bool                `json:"persisted"`
}

// Service computes, stores and lists matches.
type Service struct {
	profiles ProfileStore
	matches  MatchStore
	analyses *analysis.Cache
	enricher enrichment.Enricher
	scorer   *scoring.Scorer
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Manager
	locks    *keyedMutex
	now      func() time.Time
}

// NewService creates a Service. A nil Enricher means enrichment.Disabled and a
// nil Scorer uses the default complementarity table.
func NewService(deps Dependencies, opts Options) (*Service, error) {
	if deps.Profiles == nil || deps.Matches == nil || deps.Analyses == nil {
		return nil, errors.New("matching: profile store, match store and analysis cache are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("matching: invalid options: %w", err)
	}
	if deps.Enricher == nil {
		deps.Enricher = enrichment.Disabled{}
	}
	if deps.Scorer == nil {
		deps.Scorer = scoring.NewScorer(nil)
	}

	return &Service{
		profiles: deps.Profiles,
		matches:  deps.Matches,
		analyses: deps.Analyses,
		enricher: deps.Enricher,
		scorer:   deps.Scorer,
		opts:     opts,
		logger:   observability.OrNop(deps.Logger),
		metrics:  deps.Metrics,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}, nil
}

type candidate struct {
	profile *types.Profile
	scores  scoring.Scores
	reasons types.MatchReasons
	overall float64
}

// ComputeMatches recomputes and stores the ranked matches of requesterID.
func (s *Service) ComputeMatches(ctx context.Context, requesterID uuid.UUID) (*Result, error) {
	start := time.Now()
	result, err := s.computeMatches(ctx, requesterID)

	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case result.Notice != "":
		outcome = metrics.OutcomeInsufficientData
	}
	count := 0
	if result != nil {
		count = len(result.Matches)
	}
	s.metrics.RecordMatchRun(outcome, time.Since(start), count)
	return result, err
}

func (s *Service) computeMatches(ctx context.Context, requesterID uuid.UUID) (*Result, error) {
	if requesterID == uuid.Nil {
		return nil, newError(KindUnauthorized, "a valid requester identity is required", nil)
	}
	logger := s.logger.With(zap.String(observability.FieldRequesterID, requesterID.String()))

	unlock, err := s.locks.Lock(ctx, requesterID)
	if err != nil {
		return nil, newError(KindInternal, "match computation was cancelled", err)
	}
	defer unlock()

	profiles, err := s.profiles.ListCompletedProfiles(ctx)
	if err != nil {
		return nil, newError(KindInternal, "failed to load profiles", err)
	}
	if len(profiles) < 2 {
		logger.Info("not enough profiles for matching", zap.Int("profiles", len(profiles)))
		return &Result{Matches: []types.MatchResult{}, Notice: NoticeInsufficientData}, nil
	}

	idx := slices.IndexFunc(profiles, func(p *types.Profile) bool { return p.UserID == requesterID })
	if idx < 0 {
		return nil, newError(KindNotOnboarded, MessageNotOnboarded, nil)
	}
	requester := profiles[idx]
	others := slices.Delete(slices.Clone(profiles), idx, idx+1)

	requesterAnalysis, err := s.analyses.GetOrCreate(ctx, requester, s.enricher.ExtractIntent)
	if err != nil {
		return nil, newError(KindInternal, "failed to prepare profile analysis", err)
	}

	ids := make([]uuid.UUID, len(others))
	for i, p := range others {
		ids[i] = p.UserID
	}
	candidateAnalyses, err := s.analyses.Peek(ctx, ids)
	if err != nil {
		// tag bonus is optional signal
		logger.Warn("candidate analyses unavailable, scoring without content bonus", zap.Error(err))
		candidateAnalyses = nil
	}

	ranked, err := s.rank(ctx, requester, requesterAnalysis, others, candidateAnalyses)
	if err != nil {
		return nil, newError(KindInternal, "match computation was cancelled", err)
	}

	rationales := s.summarize(ctx, requester, ranked)

	createdAt := s.now().UTC()
	matches := make([]types.MatchResult, len(ranked))
	for i, c := range ranked {
		public := c.profile.Public()
		matches[i] = types.MatchResult{
			UserID:                  requesterID,
			MatchedUserID:           c.profile.UserID,
			Rank:                    i + 1,
			StrategicAlignmentScore: round2(c.scores.StrategicAlignment),
			MeetingValueScore:       round2(c.scores.MeetingValue),
			ComplementarityScore:    round2(c.scores.Complementarity),
			OverallScore:            round2(c.overall),
			Rationale:               rationales[i],
			Reasons:                 c.reasons,
			MatchedProfile:          &public,
			CreatedAt:               createdAt,
		}
	}

	result := &Result{Matches: matches, Persisted: true}
	if err := s.matches.ReplaceMatches(ctx, requesterID, matches); err != nil {
		perr := newError(KindPersistence, WarningNotPersisted, err)
		logger.Error("failed to persist matches", zap.Error(perr))
		s.metrics.RecordPersistenceFailure()
		result.Persisted = false
		result.Warnings = append(result.Warnings, WarningNotPersisted)
	}

	logger.Info("matches computed",
		zap.Int(observability.FieldMatchCount, len(matches)),
		zap.Int("candidates", len(others)),
		zap.Bool("persisted", result.Persisted),
	)
	return result, nil
}

// rank scores every candidate in parallel, drops those at or below the
// relevance floor, and returns the top N by overall score. Ties keep the
// profile store order.
func (s *Service) rank(
	ctx context.Context,
	requester *types.Profile,
	requesterAnalysis *types.ProfileAnalysis,
	others []*types.Profile,
	candidateAnalyses map[uuid.UUID]*types.ProfileAnalysis,
) ([]candidate, error) {
	scored := make([]candidate, len(others))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ScoringWorkers)
	for i, other := range others {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores := s.scorer.Score(requester, other)
			bonus := 0.0
			if tags := tagsOf(candidateAnalyses[other.UserID]); len(tags) > 0 && len(requesterAnalysis.ContentTags) > 0 {
				bonus = similarity.SetOverlapRatio(requesterAnalysis.ContentTags, tags) * s.opts.ContentBonusWeight
			}
			scored[i] = candidate{
				profile: other,
				scores:  scores,
				reasons: s.scorer.Reasons(requester, other),
				overall: s.overall(scores, bonus),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.AddCandidatesScored(len(scored))

	kept := slices.DeleteFunc(scored, func(c candidate) bool { return c.overall <= s.opts.RelevanceFloor })
	slices.SortStableFunc(kept, func(a, b candidate) int {
		switch {
		case a.overall > b.overall:
			return -1
		case a.overall < b.overall:
			return 1
		default:
			return 0
		}
	})
	if len(kept) > s.opts.TopN {
		kept = kept[:s.opts.TopN]
	}
	return kept, nil
}

func (s *Service) overall(scores scoring.Scores, bonus float64) float64 {
	w := s.opts.Weights
	return scoring.Clamp(scores.StrategicAlignment*w.StrategicAlignment +
		scores.MeetingValue*w.MeetingValue +
		scores.Complementarity*w.Complementarity +
		bonus)
}

// summarize fills rationale slots for the top SummarizeTopN matches. Calls run
// with bounded concurrency; each result lands in its own index so completion
// order never affects ranking. Ranks past the slice get "".
func (s *Service) summarize(ctx context.Context, requester *types.Profile, ranked []candidate) []string {
	rationales := make([]string, len(ranked))
	n := min(s.opts.SummarizeTopN, len(ranked))
	if n == 0 {
		return rationales
	}

	sem := semaphore.NewWeighted(int64(s.opts.SummaryConcurrency))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < n; j++ {
				rationales[j] = enrichment.FallbackRationale(requester)
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			summary, err := s.enricher.SummarizeMatch(ctx, requester, ranked[i].profile, ranked[i].scores)
			if err != nil {
				summary = enrichment.FallbackRationale(requester)
			}
			rationales[i] = summary
		}()
	}
	wg.Wait()
	return rationales
}

// ListMatches returns the stored matches of requesterID with the matched
// participants' public profiles and the requester's action on each.
func (s *Service) ListMatches(ctx context.Context, requesterID uuid.UUID) ([]types.MatchResult, error) {
	if requesterID == uuid.Nil {
		return nil, newError(KindUnauthorized, "a valid requester identity is required", nil)
	}

	stored, err := s.matches.ListMatches(ctx, requesterID)
	if err != nil {
		return nil, newError(KindInternal, "failed to load matches", err)
	}
	actions, err := s.matches.ListMatchActions(ctx, requesterID)
	if err != nil {
		return nil, newError(KindInternal, "failed to load match actions", err)
	}
	statusByUser := make(map[uuid.UUID]types.ActionStatus, len(actions))
	for _, a := range actions {
		statusByUser[a.MatchedUserID] = a.Status
	}

	out := make([]types.MatchResult, 0, len(stored))
	for _, m := range stored {
		profile, err := s.profiles.GetProfile(ctx, m.MatchedUserID)
		if err != nil {
			return nil, newError(KindInternal, "failed to load matched profile", err)
		}
		if profile != nil {
			public := profile.Public()
			m.MatchedProfile = &public
		}
		m.ActionStatus = types.ActionPending
		if status, ok := statusByUser[m.MatchedUserID]; ok {
			m.ActionStatus = status
		}
		out = append(out, m)
	}
	return out, nil
}

// RecordAction stores the requester's response to one of their matches.
func (s *Service) RecordAction(ctx context.Context, requesterID, matchedUserID uuid.UUID, status types.ActionStatus) (*types.MatchAction, error) {
	if requesterID == uuid.Nil {
		return nil, newError(KindUnauthorized, "a valid requester identity is required", nil)
	}
	if matchedUserID == uuid.Nil || matchedUserID == requesterID {
		return nil, newError(KindInvalidRequest, "matched user id is invalid", nil)
	}
	if _, err := types.ParseActionStatus(string(status)); err != nil {
		return nil, newError(KindInvalidRequest, err.Error(), nil)
	}

	action := &types.MatchAction{
		UserID:        requesterID,
		MatchedUserID: matchedUserID,
		Status:        status,
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.matches.UpsertMatchAction(ctx, action); err != nil {
		return nil, newError(KindInternal, "failed to record match action", err)
	}
	s.logger.Info("match action recorded",
		zap.String(observability.FieldRequesterID, requesterID.String()),
		zap.String(observability.FieldCandidateID, matchedUserID.String()),
		zap.String("status", string(status)),
	)
	return action, nil
}

// InvalidateAnalysis drops the cached analysis of userID.
func (s *Service) InvalidateAnalysis(ctx context.Context, userID uuid.UUID) error {
	if err := s.analyses.Invalidate(ctx, userID); err != nil {
		return newError(KindInternal, "failed to invalidate analysis", err)
	}
	return nil
}

func tagsOf(a *types.ProfileAnalysis) []string {
	if a == nil {
		return nil
	}
	return a.ContentTags
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
