// Package types provides type definitions for structured data used throughout the matchmaker.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Profile is a participant's strategic self-description used as matching input.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name,omitempty" validate:"max=200"`
	JobTitle  string    `json:"job_title,omitempty" validate:"max=200"`
	Company   string    `json:"company,omitempty" validate:"max=200"`
	Bio       string    `json:"bio,omitempty" validate:"max=4000"`
	AvatarURL string    `json:"avatar_url,omitempty" validate:"omitempty,url"`

	PrimaryInterest       string `json:"primary_interest,omitempty" validate:"max=200"`
	InvestmentThesis      string `json:"investment_thesis,omitempty" validate:"max=4000"`
	AsymmetricOpportunity string `json:"asymmetric_opportunity,omitempty" validate:"max=4000"`
	HardConstraints       string `json:"hard_constraints,omitempty" validate:"max=4000"`

	StrategicOutcomes []string `json:"strategic_outcomes" validate:"max=2,dive,required"`
	CapitalLeverage   []string `json:"capital_leverage" validate:"dive,required"`
	CounterpartyTypes []string `json:"counterparty_types" validate:"max=2,dive,required"`
	AdjacentDomains   []string `json:"adjacent_domains" validate:"max=3,dive,required"`
	CounterpartyStage string   `json:"counterparty_stage,omitempty" validate:"max=200"`

	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate validates the profile field limits.
func (p *Profile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// HasOpportunityThesis reports whether the participant articulated an asymmetric opportunity.
func (p *Profile) HasOpportunityThesis() bool {
	return strings.TrimSpace(p.AsymmetricOpportunity) != ""
}

// Public returns the projection of the profile shown to other participants.
func (p *Profile) Public() MatchedProfile {
	return MatchedProfile{
		FullName:          p.FullName,
		JobTitle:          p.JobTitle,
		Company:           p.Company,
		PrimaryInterest:   p.PrimaryInterest,
		StrategicOutcomes: p.StrategicOutcomes,
		AdjacentDomains:   p.AdjacentDomains,
	}
}

// Text renders the profile as the labelled text block sent to the language model.
func (p *Profile) Text() string {
	parts := []string{
		"Name: " + orDefault(p.FullName, "Unknown"),
		"Title: " + orDefault(p.JobTitle, "N/A") + " at " + orDefault(p.Company, "N/A"),
		"Primary Interest: " + orDefault(p.PrimaryInterest, "N/A"),
		"Strategic Outcomes: " + orDefault(strings.Join(p.StrategicOutcomes, ", "), "N/A"),
		"Asymmetric Opportunity Thesis: " + orDefault(p.AsymmetricOpportunity, "N/A"),
		"Capital Leverage: " + orDefault(strings.Join(p.CapitalLeverage, ", "), "N/A"),
		"Desired Counterparties: " + orDefault(strings.Join(p.CounterpartyTypes, ", "), "N/A"),
		"Adjacent Domains: " + orDefault(strings.Join(p.AdjacentDomains, ", "), "N/A"),
		"Counterparty Stage: " + orDefault(p.CounterpartyStage, "N/A"),
		"Hard Constraints: " + orDefault(p.HardConstraints, "None"),
	}
	return strings.Join(parts, "\n")
}

// MatchedProfile is the public subset of a profile returned alongside a match.
type MatchedProfile struct {
	FullName          string   `json:"full_name"`
	JobTitle          string   `json:"job_title"`
	Company           string   `json:"company"`
	PrimaryInterest   string   `json:"primary_interest"`
	StrategicOutcomes []string `json:"strategic_outcomes"`
	AdjacentDomains   []string `json:"adjacent_domains"`
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
