// Package types provides type definitions for structured data used throughout the matchmaker.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisSource records whether an analysis came from the language model or the deterministic fallback.
type AnalysisSource string

const (
	// AnalysisSourceModel marks an analysis parsed from a model response
	AnalysisSourceModel AnalysisSource = "model"
	// AnalysisSourceFallback marks an analysis derived directly from profile fields
	AnalysisSourceFallback AnalysisSource = "fallback"
)

// ProfileAnalysis is the derived semantic summary of a profile, cached per user.
type ProfileAnalysis struct {
	UserID                 uuid.UUID      `json:"user_id"`
	IntentVector           IntentVector   `json:"intent_vector"`
	ContentTags            []string       `json:"content_tags"`
	PowerMap               PowerMap       `json:"power_map"`
	TrendAlignment         string         `json:"trend_alignment"`
	ExecutionCompatibility string         `json:"execution_compatibility"`
	EmbeddingText          string         `json:"embedding_text,omitempty"`
	Source                 AnalysisSource `json:"source"`
	AnalyzedAt             time.Time      `json:"analyzed_at"`
}

// IntentVector summarizes a participant's primary goal, time horizon and urgency.
type IntentVector struct {
	PrimaryIntent string `json:"primary_intent"`
	TimeHorizon   string `json:"time_horizon"`
	Urgency       string `json:"urgency"`
}

// PowerMap lists the capabilities a participant controls and the ones they seek.
type PowerMap struct {
	Controls []string `json:"controls"`
	Seeks    []string `json:"seeks"`
}
