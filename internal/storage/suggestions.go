package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/service"
)

const suggestionColumns = `id, type, record_id, target_type, target_id,
	confidence, method, status, evidence, pattern_ids, batch_id,
	created_at, decided_at`

// CreateSuggestion inserts a new suggestion. The partial unique index on
// pending (record, target) rows makes the duplicate check and the insert
// a single atomic operation; a concurrent duplicate surfaces as
// common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateSuggestion(ctx context.Context, suggestion *model.Suggestion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSuggestion(suggestion); err != nil {
		return err
	}

	var batchID sql.NullString
	if suggestion.BatchID != nil {
		batchID = sql.NullString{String: *suggestion.BatchID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suggestions (
			id, type, record_id, target_type, target_id,
			confidence, method, status, evidence, pattern_ids, batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		suggestion.ID, suggestion.Type, suggestion.RecordID,
		suggestion.TargetType, suggestion.TargetID,
		suggestion.Confidence, suggestion.Method, suggestion.Status,
		suggestion.Evidence, joinPatternIDs(suggestion.PatternIDs), batchID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("pending suggestion for record %s target %s/%s: %w",
				suggestion.RecordID, suggestion.TargetType, suggestion.TargetID,
				common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
	return nil
}

// GetSuggestion retrieves a suggestion by ID.
func (s *SQLiteStorage) GetSuggestion(ctx context.Context, id string) (*model.Suggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)

	suggestion, err := scanSuggestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("suggestion %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return suggestion, nil
}

// GetPendingSuggestion retrieves the pending suggestion for a
// (record, target) pair, if any.
func (s *SQLiteStorage) GetPendingSuggestion(ctx context.Context, recordID string, targetType model.TargetType, targetID string) (*model.Suggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+suggestionColumns+`
		FROM suggestions
		WHERE record_id = ? AND target_type = ? AND target_id = ? AND status = 'pending'`,
		recordID, targetType, targetID)

	suggestion, err := scanSuggestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pending suggestion: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pending suggestion: %w", err)
	}
	return suggestion, nil
}

// ListSuggestions retrieves suggestions matching the filter, newest first.
func (s *SQLiteStorage) ListSuggestions(ctx context.Context, filter service.SuggestionFilter) ([]model.Suggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.TargetType != "" {
		query += ` AND target_type = ?`
		args = append(args, filter.TargetType)
	}
	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}

	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var suggestions []model.Suggestion
	for rows.Next() {
		suggestion, scanErr := scanSuggestion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", scanErr)
		}
		suggestions = append(suggestions, *suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}
	return suggestions, nil
}

// UpdateSuggestionStatus persists a suggestion's status, evidence and
// decision timestamp after a state-machine transition.
func (s *SQLiteStorage) UpdateSuggestionStatus(ctx context.Context, suggestion *model.Suggestion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSuggestion(suggestion); err != nil {
		return err
	}

	var decidedAt sql.NullTime
	if suggestion.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: *suggestion.DecidedAt, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE suggestions SET status = ?, evidence = ?, decided_at = ?
		WHERE id = ?`,
		suggestion.Status, suggestion.Evidence, decidedAt, suggestion.ID)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("suggestion %s: %w", suggestion.ID, common.ErrNotFound)
	}
	return nil
}

func scanSuggestion(row rowScanner) (*model.Suggestion, error) {
	var suggestion model.Suggestion
	var patternIDs string
	var batchID sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(
		&suggestion.ID, &suggestion.Type, &suggestion.RecordID,
		&suggestion.TargetType, &suggestion.TargetID,
		&suggestion.Confidence, &suggestion.Method, &suggestion.Status,
		&suggestion.Evidence, &patternIDs, &batchID,
		&suggestion.CreatedAt, &decidedAt,
	)
	if err != nil {
		return nil, err
	}
	suggestion.PatternIDs = splitPatternIDs(patternIDs)
	if batchID.Valid {
		suggestion.BatchID = &batchID.String
	}
	if decidedAt.Valid {
		suggestion.DecidedAt = &decidedAt.Time
	}
	return &suggestion, nil
}

func joinPatternIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitPatternIDs(joined string) []int64 {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
