package memstore

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/strategic-matchmaker/internal/types"
)

func TestProfiles(t *testing.T) {
	s := New()
	ctx := t.Context()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	second := &types.Profile{UserID: uuid.New(), OnboardingComplete: true, CreatedAt: base.Add(time.Hour)}
	first := &types.Profile{UserID: uuid.New(), OnboardingComplete: true, CreatedAt: base}
	pending := &types.Profile{UserID: uuid.New(), CreatedAt: base}
	for _, p := range []*types.Profile{second, first, pending} {
		_, err := s.UpsertProfile(ctx, p)
		require.NoError(t, err)
	}

	completed, err := s.ListCompletedProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, first.UserID, completed[0].UserID)
	assert.Equal(t, second.UserID, completed[1].UserID)

	got, err := s.GetProfile(ctx, pending.UserID)
	require.NoError(t, err)
	assert.False(t, got.OnboardingComplete)

	missing, err := s.GetProfile(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertProfile_PreservesCreatedAt(t *testing.T) {
	s := New()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &types.Profile{UserID: uuid.New(), CreatedAt: created, FullName: "A"}

	_, err := s.UpsertProfile(t.Context(), p)
	require.NoError(t, err)

	updated, err := s.UpsertProfile(t.Context(), &types.Profile{UserID: p.UserID, FullName: "B"})
	require.NoError(t, err)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, "B", updated.FullName)
}

func TestAnalyses_InsertIfAbsent(t *testing.T) {
	s := New()
	ctx := t.Context()
	id := uuid.New()

	first, err := s.InsertAnalysisIfAbsent(ctx, &types.ProfileAnalysis{UserID: id, Source: types.AnalysisSourceModel})
	require.NoError(t, err)
	assert.Equal(t, types.AnalysisSourceModel, first.Source)

	second, err := s.InsertAnalysisIfAbsent(ctx, &types.ProfileAnalysis{UserID: id, Source: types.AnalysisSourceFallback})
	require.NoError(t, err)
	assert.Equal(t, types.AnalysisSourceModel, second.Source)

	got, err := s.GetAnalyses(ctx, []uuid.UUID{id, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, s.DeleteAnalysis(ctx, id))
	require.NoError(t, s.DeleteAnalysis(ctx, id))
	got, err = s.GetAnalyses(ctx, []uuid.UUID{id})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceMatches(t *testing.T) {
	s := New()
	ctx := t.Context()
	user := uuid.New()

	require.NoError(t, s.ReplaceMatches(ctx, user, []types.MatchResult{
		{UserID: user, MatchedUserID: uuid.New(), Rank: 2, MatchedProfile: &types.MatchedProfile{FullName: "x"}},
		{UserID: user, MatchedUserID: uuid.New(), Rank: 1},
	}))

	list, err := s.ListMatches(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Rank)
	assert.Nil(t, list[1].MatchedProfile)
	assert.False(t, list[0].CreatedAt.IsZero())

	require.NoError(t, s.ReplaceMatches(ctx, user, nil))
	assert.Equal(t, 0, s.MatchCount(user))
}

func TestMatchActions(t *testing.T) {
	s := New()
	ctx := t.Context()
	user, other := uuid.New(), uuid.New()

	require.NoError(t, s.UpsertMatchAction(ctx, &types.MatchAction{UserID: user, MatchedUserID: other, Status: types.ActionPending}))
	require.NoError(t, s.UpsertMatchAction(ctx, &types.MatchAction{UserID: user, MatchedUserID: other, Status: types.ActionAccepted}))
	require.NoError(t, s.UpsertMatchAction(ctx, &types.MatchAction{UserID: other, MatchedUserID: user, Status: types.ActionDeclined}))

	actions, err := s.ListMatchActions(ctx, user)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, types.ActionAccepted, actions[0].Status)
}
