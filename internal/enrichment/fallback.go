package enrichment

import (
	"strings"

	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// Fallback values used when the model cannot be consulted.
const (
	DefaultTimeHorizon = "12-18 months"
	DefaultUrgency     = "medium"
	NotSpecified       = "Not specified"

	maxFallbackTags = 8
)

// FallbackAnalysis derives an analysis directly from the profile's own fields.
// It is deterministic: the same profile always yields the same analysis.
func FallbackAnalysis(profile *types.Profile) *types.ProfileAnalysis {
	tags := make([]string, 0, len(profile.StrategicOutcomes)+len(profile.AdjacentDomains))
	tags = append(tags, profile.StrategicOutcomes...)
	tags = append(tags, profile.AdjacentDomains...)
	if len(tags) > maxFallbackTags {
		tags = tags[:maxFallbackTags]
	}

	return &types.ProfileAnalysis{
		UserID: profile.UserID,
		IntentVector: types.IntentVector{
			PrimaryIntent: textOr(profile.PrimaryInterest, "Unknown"),
			TimeHorizon:   DefaultTimeHorizon,
			Urgency:       DefaultUrgency,
		},
		ContentTags: tags,
		PowerMap: types.PowerMap{
			Controls: append([]string{}, profile.CapitalLeverage...),
			Seeks:    append([]string{}, profile.CounterpartyTypes...),
		},
		TrendAlignment:         textOr(profile.AsymmetricOpportunity, NotSpecified),
		ExecutionCompatibility: textOr(profile.CounterpartyStage, NotSpecified),
		EmbeddingText:          profile.Text(),
		Source:                 types.AnalysisSourceFallback,
	}
}

// FallbackRationale is the rationale used when a summary cannot be generated.
// It names the requester's own primary interest.
func FallbackRationale(requester *types.Profile) string {
	return "Strong match based on shared interest in " +
		textOr(requester.PrimaryInterest, "strategic alignment") +
		" with complementary capabilities."
}

func textOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
