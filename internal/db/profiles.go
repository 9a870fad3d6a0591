package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// -----------------------------------------------------------------------------
// Profile Methods
// -----------------------------------------------------------------------------

const profileColumns = `user_id, full_name, job_title, company, bio, avatar_url,
	primary_interest, investment_thesis, asymmetric_opportunity, hard_constraints,
	strategic_outcomes, capital_leverage, counterparty_types, adjacent_domains,
	counterparty_stage, onboarding_complete, created_at, updated_at`

// UpsertProfile creates or updates a profile. The creation time of an existing
// profile is preserved.
func (db *DB) UpsertProfile(ctx context.Context, p *types.Profile) (*types.Profile, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id, full_name, job_title, company, bio, avatar_url,
			primary_interest, investment_thesis, asymmetric_opportunity, hard_constraints,
			strategic_outcomes, capital_leverage, counterparty_types, adjacent_domains,
			counterparty_stage, onboarding_complete)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			job_title = EXCLUDED.job_title,
			company = EXCLUDED.company,
			bio = EXCLUDED.bio,
			avatar_url = EXCLUDED.avatar_url,
			primary_interest = EXCLUDED.primary_interest,
			investment_thesis = EXCLUDED.investment_thesis,
			asymmetric_opportunity = EXCLUDED.asymmetric_opportunity,
			hard_constraints = EXCLUDED.hard_constraints,
			strategic_outcomes = EXCLUDED.strategic_outcomes,
			capital_leverage = EXCLUDED.capital_leverage,
			counterparty_types = EXCLUDED.counterparty_types,
			adjacent_domains = EXCLUDED.adjacent_domains,
			counterparty_stage = EXCLUDED.counterparty_stage,
			onboarding_complete = EXCLUDED.onboarding_complete,
			updated_at = NOW()
		 RETURNING `+profileColumns,
		p.UserID, p.FullName, p.JobTitle, p.Company, p.Bio, p.AvatarURL,
		p.PrimaryInterest, p.InvestmentThesis, p.AsymmetricOpportunity, p.HardConstraints,
		nonNil(p.StrategicOutcomes), nonNil(p.CapitalLeverage), nonNil(p.CounterpartyTypes), nonNil(p.AdjacentDomains),
		p.CounterpartyStage, p.OnboardingComplete,
	)
	stored, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return stored, nil
}

// GetProfile retrieves a profile by user ID. Returns nil, nil when absent.
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*types.Profile, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ListCompletedProfiles returns every onboarded profile ordered by creation time, then user id.
func (db *DB) ListCompletedProfiles(ctx context.Context) ([]*types.Profile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE onboarding_complete
		 ORDER BY created_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (*types.Profile, error) {
	var p types.Profile
	err := row.Scan(&p.UserID, &p.FullName, &p.JobTitle, &p.Company, &p.Bio, &p.AvatarURL,
		&p.PrimaryInterest, &p.InvestmentThesis, &p.AsymmetricOpportunity, &p.HardConstraints,
		&p.StrategicOutcomes, &p.CapitalLeverage, &p.CounterpartyTypes, &p.AdjacentDomains,
		&p.CounterpartyStage, &p.OnboardingComplete, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
