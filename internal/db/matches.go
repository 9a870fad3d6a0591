package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// -----------------------------------------------------------------------------
// Match Methods
// -----------------------------------------------------------------------------

// ReplaceMatches atomically swaps the stored match set of userID for matches.
// Concurrent replaces for the same user are serialized by a transaction-scoped
// advisory lock; readers see either the old set or the new one.
func (db *DB) ReplaceMatches(ctx context.Context, userID uuid.UUID, matches []types.MatchResult) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, userID.String()); err != nil {
		return fmt.Errorf("failed to lock match set: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}

	if len(matches) > 0 {
		batch := &pgx.Batch{}
		for _, m := range matches {
			reasonsJSON, err := json.Marshal(m.Reasons)
			if err != nil {
				return fmt.Errorf("failed to marshal match reasons: %w", err)
			}
			batch.Queue(
				`INSERT INTO matches (user_id, matched_user_id, rank, strategic_alignment_score,
					meeting_value_score, complementarity_score, overall_score, ai_summary,
					match_reasons, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))`,
				userID, m.MatchedUserID, m.Rank, m.StrategicAlignmentScore,
				m.MeetingValueScore, m.ComplementarityScore, m.OverallScore, m.Rationale,
				reasonsJSON, nullCreatedAt(m),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit matches: %w", err)
	}
	return nil
}

// ListMatches retrieves the stored matches of userID in rank order
func (db *DB) ListMatches(ctx context.Context, userID uuid.UUID) ([]types.MatchResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, matched_user_id, rank, strategic_alignment_score, meeting_value_score,
		        complementarity_score, overall_score, ai_summary, match_reasons, created_at
		 FROM matches WHERE user_id = $1
		 ORDER BY rank`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []types.MatchResult
	for rows.Next() {
		var m types.MatchResult
		var reasonsJSON []byte
		if err := rows.Scan(&m.UserID, &m.MatchedUserID, &m.Rank, &m.StrategicAlignmentScore,
			&m.MeetingValueScore, &m.ComplementarityScore, &m.OverallScore, &m.Rationale,
			&reasonsJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if len(reasonsJSON) > 0 {
			if err := json.Unmarshal(reasonsJSON, &m.Reasons); err != nil {
				return nil, fmt.Errorf("failed to unmarshal match reasons: %w", err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// -----------------------------------------------------------------------------
// Match Action Methods
// -----------------------------------------------------------------------------

// UpsertMatchAction records the requester's response to a matched user
func (db *DB) UpsertMatchAction(ctx context.Context, action *types.MatchAction) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO match_actions (user_id, matched_user_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, matched_user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`,
		action.UserID, action.MatchedUserID, string(action.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match action: %w", err)
	}
	return nil
}

// ListMatchActions retrieves every action recorded by userID
func (db *DB) ListMatchActions(ctx context.Context, userID uuid.UUID) ([]types.MatchAction, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, matched_user_id, status, updated_at
		 FROM match_actions WHERE user_id = $1
		 ORDER BY matched_user_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match actions: %w", err)
	}
	defer rows.Close()

	var actions []types.MatchAction
	for rows.Next() {
		var a types.MatchAction
		var status string
		if err := rows.Scan(&a.UserID, &a.MatchedUserID, &status, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match action: %w", err)
		}
		a.Status = types.ActionStatus(status)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list match actions: %w", err)
	}
	return actions, nil
}

func nullCreatedAt(m types.MatchResult) any {
	if m.CreatedAt.IsZero() {
		return nil
	}
	return m.CreatedAt
}
