// Package types provides type definitions for structured data used throughout the matchmaker.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchResult is one ranked introduction for a requester.
type MatchResult struct {
	UserID                  uuid.UUID       `json:"user_id"`
	MatchedUserID           uuid.UUID       `json:"matched_user_id"`
	Rank                    int             `json:"rank"`
	StrategicAlignmentScore float64         `json:"strategic_alignment_score"`
	MeetingValueScore       float64         `json:"meeting_value_score"`
	ComplementarityScore    float64         `json:"complementarity_score"`
	OverallScore            float64         `json:"overall_score"`
	Rationale               string          `json:"ai_summary"`
	Reasons                 MatchReasons    `json:"match_reasons"`
	MatchedProfile          *MatchedProfile `json:"matched_profile,omitempty"`
	ActionStatus            ActionStatus    `json:"action_status,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
}

// MatchReasons is the raw overlap breakdown behind a match, each ratio in [0,1].
type MatchReasons struct {
	StrategicOutcomesOverlap float64 `json:"strategic_outcomes_overlap"`
	DomainOverlap            float64 `json:"domain_overlap"`
	LeverageComplementarity  float64 `json:"leverage_complementarity"`
}

// ActionStatus is a requester's response to a suggested introduction.
type ActionStatus string

// Action statuses
const (
	ActionPending  ActionStatus = "pending"
	ActionAccepted ActionStatus = "accepted"
	ActionDeclined ActionStatus = "declined"
)

// ParseActionStatus validates a raw status string.
func ParseActionStatus(raw string) (ActionStatus, error) {
	switch status := ActionStatus(raw); status {
	case ActionPending, ActionAccepted, ActionDeclined:
		return status, nil
	default:
		return "", fmt.Errorf("invalid action status %q", raw)
	}
}

// MatchAction records how a requester responded to one matched participant.
type MatchAction struct {
	UserID        uuid.UUID    `json:"user_id"`
	MatchedUserID uuid.UUID    `json:"matched_user_id"`
	Status        ActionStatus `json:"status"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
