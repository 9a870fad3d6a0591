package matching

import (
	"runtime"

	"github.com/go-playground/validator/v10"
)

// Weights blends the component scores into the overall score.
type Weights struct {
	StrategicAlignment float64 `mapstructure:"strategic_alignment" validate:"gte=0"`
	MeetingValue       float64 `mapstructure:"meeting_value" validate:"gte=0"`
	Complementarity    float64 `mapstructure:"complementarity" validate:"gte=0"`
}

// Options tunes the orchestrator.
type Options struct {
	// TopN is the number of matches kept per requester.
	TopN int `mapstructure:"top_n" validate:"gte=1"`
	// SummarizeTopN is how many of the top matches get a model-written rationale.
	SummarizeTopN int `mapstructure:"summarize_top_n" validate:"gte=0,ltefield=TopN"`
	// RelevanceFloor drops candidates whose overall score is at or below it.
	RelevanceFloor float64 `mapstructure:"relevance_floor" validate:"gte=0,lte=100"`
	// ContentBonusWeight scales the content-tag overlap bonus.
	ContentBonusWeight float64 `mapstructure:"content_bonus_weight" validate:"gte=0"`
	// SummaryConcurrency bounds in-flight rationale calls.
	SummaryConcurrency int `mapstructure:"summary_concurrency" validate:"gte=1"`
	// ScoringWorkers bounds parallel candidate scoring.
	ScoringWorkers int `mapstructure:"scoring_workers" validate:"gte=1"`

	Weights Weights `mapstructure:"weights"`
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		TopN:               10,
		SummarizeTopN:      5,
		RelevanceFloor:     20,
		ContentBonusWeight: 15,
		SummaryConcurrency: 2,
		ScoringWorkers:     runtime.GOMAXPROCS(0),
		Weights: Weights{
			StrategicAlignment: 0.35,
			MeetingValue:       0.30,
			Complementarity:    0.35,
		},
	}
}

// Validate checks the option bounds.
func (o Options) Validate() error {
	return validator.New().Struct(o)
}
