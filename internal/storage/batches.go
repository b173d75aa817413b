package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// CreateBatch inserts a new batch.
func (s *SQLiteStorage) CreateBatch(ctx context.Context, batch *model.Batch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if err := validateString(batch.ID, "batch.ID"); err != nil {
		return err
	}
	if err := validateString(batch.GroupKey, "batch.GroupKey"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batches (id, group_key, target_type, target_id)
		VALUES (?, ?, ?, ?)`,
		batch.ID, batch.GroupKey, batch.TargetType, batch.TargetID)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a batch by ID.
func (s *SQLiteStorage) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, group_key, target_type, target_id, created_at
		FROM batches WHERE id = ?`, id)

	var batch model.Batch
	if err := row.Scan(&batch.ID, &batch.GroupKey, &batch.TargetType,
		&batch.TargetID, &batch.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("batch %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &batch, nil
}

// FindOpenBatch locates a batch for the grouping key that still has at
// least one pending member, so new suggestions join it instead of
// spawning a parallel batch for the same decision.
func (s *SQLiteStorage) FindOpenBatch(ctx context.Context, groupKey string, targetType model.TargetType, targetID string) (*model.Batch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(groupKey, "groupKey"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT b.id, b.group_key, b.target_type, b.target_id, b.created_at
		FROM batches b
		WHERE b.group_key = ? AND b.target_type = ? AND b.target_id = ?
		AND EXISTS (
			SELECT 1 FROM suggestions s
			WHERE s.batch_id = b.id AND s.status = 'pending'
		)
		ORDER BY b.created_at DESC
		LIMIT 1`, groupKey, targetType, targetID)

	var batch model.Batch
	if err := row.Scan(&batch.ID, &batch.GroupKey, &batch.TargetType,
		&batch.TargetID, &batch.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("open batch for %s: %w", groupKey, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find open batch: %w", err)
	}
	return &batch, nil
}

// GetBatchMembers retrieves all suggestions in a batch, oldest first.
func (s *SQLiteStorage) GetBatchMembers(ctx context.Context, batchID string) ([]model.Suggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+suggestionColumns+`
		FROM suggestions
		WHERE batch_id = ?
		ORDER BY created_at ASC, id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []model.Suggestion
	for rows.Next() {
		suggestion, scanErr := scanSuggestion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan batch member: %w", scanErr)
		}
		members = append(members, *suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch members: %w", err)
	}
	return members, nil
}

// GetBatchSummaries retrieves every batch with its derived status and
// member counts. The status is pure bookkeeping over member statuses.
func (s *SQLiteStorage) GetBatchSummaries(ctx context.Context) ([]model.BatchSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.group_key, b.target_type, b.target_id, b.created_at,
			COUNT(s.id),
			SUM(CASE WHEN s.status IN ('pending', 'approved') THEN 1 ELSE 0 END),
			SUM(CASE WHEN s.status = 'applied' THEN 1 ELSE 0 END),
			SUM(CASE WHEN s.status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN s.status = 'rejected' THEN 1 ELSE 0 END)
		FROM batches b
		LEFT JOIN suggestions s ON s.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.BatchSummary
	for rows.Next() {
		var summary model.BatchSummary
		if err := rows.Scan(
			&summary.Batch.ID, &summary.Batch.GroupKey,
			&summary.Batch.TargetType, &summary.Batch.TargetID,
			&summary.Batch.CreatedAt,
			&summary.Members, &summary.Pending,
			&summary.Applied, &summary.Failed, &summary.Rejected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan batch summary: %w", err)
		}
		switch {
		case summary.Pending > 0 || summary.Members == 0:
			summary.Status = model.BatchPending
		case summary.Applied == summary.Members || summary.Rejected == summary.Members:
			summary.Status = model.BatchDone
		default:
			summary.Status = model.BatchMixed
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch summaries: %w", err)
	}
	return summaries, nil
}
