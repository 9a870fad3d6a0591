package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/strategic-matchmaker/internal/scoring"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// ErrDisabled is returned by Disabled.SummarizeMatch.
var ErrDisabled = errors.New("semantic enrichment is disabled")

// Disabled is the Enricher used when no model is configured.
// It always takes the fallback paths.
type Disabled struct{}

// ExtractIntent returns FallbackAnalysis.
func (Disabled) ExtractIntent(_ context.Context, profile *types.Profile) (*types.ProfileAnalysis, error) {
	analysis := FallbackAnalysis(profile)
	analysis.AnalyzedAt = time.Now().UTC()
	return analysis, nil
}

// SummarizeMatch always fails with ErrDisabled.
func (Disabled) SummarizeMatch(context.Context, *types.Profile, *types.Profile, scoring.Scores) (string, error) {
	return "", ErrDisabled
}
