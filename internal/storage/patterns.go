package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

const patternColumns = `id, type, key, target_type, target_id, confidence,
	times_used, times_correct, active, created_at, last_used_at`

// UpsertPattern creates a pattern or, if one already exists for the same
// (type, key, target), reactivates it in place. Existing usage counters
// and confidence are preserved on reactivation so history is never lost.
func (s *SQLiteStorage) UpsertPattern(ctx context.Context, pattern *model.Pattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	pattern.Confidence = model.ClampConfidence(pattern.Confidence)

	query := `
		INSERT INTO patterns (type, key, target_type, target_id, confidence, active)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT (type, key, target_type, target_id)
		DO UPDATE SET active = 1
		RETURNING ` + patternColumns

	row := s.db.QueryRowContext(ctx, query,
		pattern.Type, pattern.Key, pattern.TargetType, pattern.TargetID,
		pattern.Confidence)

	stored, err := scanPattern(row)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	*pattern = *stored
	return nil
}

// GetPattern retrieves a pattern by ID.
func (s *SQLiteStorage) GetPattern(ctx context.Context, id int64) (*model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM patterns WHERE id = ?`, id)

	pattern, err := scanPattern(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pattern %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return pattern, nil
}

// GetActivePatterns retrieves all active patterns, ordered by type, then
// descending confidence, ties broken by earliest creation (established
// patterns win).
func (s *SQLiteStorage) GetActivePatterns(ctx context.Context) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+patternColumns+`
		FROM patterns
		WHERE active = 1
		ORDER BY type, confidence DESC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectPatterns(rows)
}

// GetPatternsForKeys retrieves active patterns of one type matching any of
// the given keys, best first.
func (s *SQLiteStorage) GetPatternsForKeys(ctx context.Context, patternType model.PatternType, keys []string) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + patternColumns + `
		FROM patterns
		WHERE active = 1 AND type = ? AND key IN (?` +
		repeatPlaceholder(len(keys)-1) + `)
		ORDER BY confidence DESC, created_at ASC, id ASC`

	args := make([]any, 0, len(keys)+1)
	args = append(args, patternType)
	for _, key := range keys {
		args = append(args, key)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get patterns for keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectPatterns(rows)
}

// RecordPatternOutcome atomically increments usage counters, recomputes
// confidence as times_correct/times_used, and deactivates the pattern in
// the same statement when it has drifted below the accuracy floor with
// enough samples. A single UPDATE keeps the read-modify-write atomic per
// pattern key; there is no stale full-object overwrite to lose.
func (s *SQLiteStorage) RecordPatternOutcome(ctx context.Context, id int64, correct bool, driftMinSamples int, driftMinAccuracy float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	correctInc := 0
	if correct {
		correctInc = 1
	}

	query := `
		UPDATE patterns SET
			times_used = times_used + 1,
			times_correct = times_correct + ?1,
			confidence = MIN(1.0, MAX(0.0,
				CAST(times_correct + ?1 AS REAL) / (times_used + 1))),
			last_used_at = CURRENT_TIMESTAMP,
			active = CASE
				WHEN times_used + 1 >= ?2
					AND CAST(times_correct + ?1 AS REAL) / (times_used + 1) < ?3
				THEN 0
				ELSE active
			END
		WHERE id = ?4`

	result, err := s.db.ExecContext(ctx, query, correctInc, driftMinSamples, driftMinAccuracy, id)
	if err != nil {
		return fmt.Errorf("failed to record pattern outcome: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// DeactivatePattern retires a pattern without deleting it.
func (s *SQLiteStorage) DeactivatePattern(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE patterns SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate pattern: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("pattern %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*model.Pattern, error) {
	var pattern model.Pattern
	var lastUsed sql.NullTime
	err := row.Scan(
		&pattern.ID, &pattern.Type, &pattern.Key,
		&pattern.TargetType, &pattern.TargetID, &pattern.Confidence,
		&pattern.TimesUsed, &pattern.TimesCorrect, &pattern.Active,
		&pattern.CreatedAt, &lastUsed,
	)
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		pattern.LastUsedAt = &lastUsed.Time
	}
	return &pattern, nil
}

func collectPatterns(rows *sql.Rows) ([]model.Pattern, error) {
	var patterns []model.Pattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, *pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}
	return patterns, nil
}

// repeatPlaceholder returns n copies of ",?" for IN clauses.
func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ",?"
	}
	return out
}
