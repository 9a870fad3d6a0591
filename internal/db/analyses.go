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
// Profile Analysis Methods
// -----------------------------------------------------------------------------

const analysisColumns = `user_id, intent_vector, content_tags, power_map, trend_alignment,
	execution_compatibility, embedding_text, source, analyzed_at`

// GetAnalyses retrieves the stored analyses for ids. Missing ids are absent from the map.
func (db *DB) GetAnalyses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*types.ProfileAnalysis, error) {
	out := make(map[uuid.UUID]*types.ProfileAnalysis, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM profile_analyses WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out[a.UserID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get analyses: %w", err)
	}
	return out, nil
}

// InsertAnalysisIfAbsent stores a unless an analysis already exists for its
// user, then returns whichever analysis is stored.
func (db *DB) InsertAnalysisIfAbsent(ctx context.Context, a *types.ProfileAnalysis) (*types.ProfileAnalysis, error) {
	intentJSON, err := json.Marshal(a.IntentVector)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent vector: %w", err)
	}
	powerJSON, err := json.Marshal(a.PowerMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal power map: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO profile_analyses (user_id, intent_vector, content_tags, power_map,
			trend_alignment, execution_compatibility, embedding_text, source, analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		 ON CONFLICT (user_id) DO NOTHING`,
		a.UserID, intentJSON, nonNil(a.ContentTags), powerJSON,
		a.TrendAlignment, a.ExecutionCompatibility, a.EmbeddingText, string(a.Source), nullTime(a),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM profile_analyses WHERE user_id = $1`, a.UserID)
	stored, err := scanAnalysis(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored analysis: %w", err)
	}
	return stored, nil
}

// DeleteAnalysis removes the analysis for id. A missing analysis is not an error.
func (db *DB) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM profile_analyses WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

func scanAnalysis(row pgx.Row) (*types.ProfileAnalysis, error) {
	var a types.ProfileAnalysis
	var intentJSON, powerJSON []byte
	var source string
	err := row.Scan(&a.UserID, &intentJSON, &a.ContentTags, &powerJSON, &a.TrendAlignment,
		&a.ExecutionCompatibility, &a.EmbeddingText, &source, &a.AnalyzedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(intentJSON, &a.IntentVector); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intent vector: %w", err)
	}
	if err := json.Unmarshal(powerJSON, &a.PowerMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal power map: %w", err)
	}
	a.Source = types.AnalysisSource(source)
	return &a, nil
}

// nullTime maps an unset analysis time to NULL so the database clock applies.
func nullTime(a *types.ProfileAnalysis) any {
	if a.AnalyzedAt.IsZero() {
		return nil
	}
	return a.AnalyzedAt
}
