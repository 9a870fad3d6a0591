// Package scoring computes rule-based compatibility scores between two profiles.
package scoring

import (
	"strings"

	"github.com/jonathan/strategic-matchmaker/internal/similarity"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// Strategic alignment weights
const (
	outcomeOverlapWeight  = 30.0
	primaryInterestWeight = 15.0
	domainOverlapWeight   = 25.0
	stageMatchWeight      = 10.0
	bothThesisWeight      = 20.0
)

// Complementarity weights
const (
	crossLeverageWeight     = 35.0
	leverageDiversityWeight = 30.0
)

// Meeting value weights
const (
	meetingAlignmentFactor       = 0.3
	meetingComplementarityFactor = 0.4
	meetingThesisBonus           = 15.0
	meetingLeverageBonus         = 15.0
)

// MaxScore is the upper bound of every component score.
const MaxScore = 100.0

// Scores holds the three component scores for a pair, each in [0,100].
type Scores struct {
	StrategicAlignment float64 `json:"strategic_alignment"`
	Complementarity    float64 `json:"complementarity"`
	MeetingValue       float64 `json:"meeting_value"`
}

// Scorer applies the rule-based scores using a configurable complementarity table.
type Scorer struct {
	table LeverageTable
}

// NewScorer returns a Scorer. A nil or empty table falls back to DefaultLeverageTable.
func NewScorer(table LeverageTable) *Scorer {
	if len(table) == 0 {
		table = DefaultLeverageTable()
	}
	return &Scorer{table: table}
}

// Score computes all three component scores for requester a against candidate b.
func (s *Scorer) Score(a, b *types.Profile) Scores {
	strategic := StrategicAlignment(a, b)
	complementarity := Complementarity(a, b, s.table)
	return Scores{
		StrategicAlignment: strategic,
		Complementarity:    complementarity,
		MeetingValue:       MeetingValue(a, b, strategic, complementarity),
	}
}

// Reasons returns the raw overlap ratios behind a pair's scores.
func (s *Scorer) Reasons(a, b *types.Profile) types.MatchReasons {
	return types.MatchReasons{
		StrategicOutcomesOverlap: similarity.SetOverlapRatio(a.StrategicOutcomes, b.StrategicOutcomes),
		DomainOverlap:            similarity.SetOverlapRatio(a.AdjacentDomains, b.AdjacentDomains),
		LeverageComplementarity:  similarity.SetDifferenceRatio(a.CapitalLeverage, b.CapitalLeverage),
	}
}

// StrategicAlignment rewards shared direction and shared depth of articulation.
func StrategicAlignment(a, b *types.Profile) float64 {
	score := 0.0
	score += similarity.SetOverlapRatio(a.StrategicOutcomes, b.StrategicOutcomes) * outcomeOverlapWeight
	if equalNonEmpty(a.PrimaryInterest, b.PrimaryInterest) {
		score += primaryInterestWeight
	}
	score += similarity.SetOverlapRatio(a.AdjacentDomains, b.AdjacentDomains) * domainOverlapWeight
	if equalNonEmpty(a.CounterpartyStage, b.CounterpartyStage) {
		score += stageMatchWeight
	}
	if a.HasOpportunityThesis() && b.HasOpportunityThesis() {
		score += bothThesisWeight
	}
	return Clamp(score)
}

// Complementarity scores how well what one side seeks is controlled by the other,
// boosted by diversity of leverage types.
func Complementarity(a, b *types.Profile, table LeverageTable) float64 {
	score := 0.0
	// A has what B seeks
	if table.Satisfies(b.CounterpartyTypes, a.CapitalLeverage) {
		score += crossLeverageWeight
	}
	// B has what A seeks
	if table.Satisfies(a.CounterpartyTypes, b.CapitalLeverage) {
		score += crossLeverageWeight
	}
	score += similarity.SetDifferenceRatio(a.CapitalLeverage, b.CapitalLeverage) * leverageDiversityWeight
	return Clamp(score)
}

// MeetingValue is a composite of the other two scores plus profile-substance bonuses.
func MeetingValue(a, b *types.Profile, strategic, complementarity float64) float64 {
	score := strategic*meetingAlignmentFactor + complementarity*meetingComplementarityFactor
	if a.HasOpportunityThesis() && b.HasOpportunityThesis() {
		score += meetingThesisBonus
	}
	if len(a.CapitalLeverage) > 0 && len(b.CapitalLeverage) > 0 {
		score += meetingLeverageBonus
	}
	return Clamp(score)
}

// Clamp bounds a score to [0, MaxScore].
func Clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func equalNonEmpty(a, b string) bool {
	a = strings.TrimSpace(a)
	return a != "" && a == strings.TrimSpace(b)
}
