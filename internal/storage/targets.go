package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// SaveTarget stores or refreshes one entry of the target catalog.
func (s *SQLiteStorage) SaveTarget(ctx context.Context, target *model.Target) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTarget(target); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targets (type, id, code, name, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET
			code = excluded.code, name = excluded.name, status = excluded.status`,
		target.Type, target.ID, strings.ToUpper(target.Code), target.Name, target.Status)
	if err != nil {
		return fmt.Errorf("failed to save target: %w", err)
	}
	return nil
}

// GetTarget retrieves a target by type and ID.
func (s *SQLiteStorage) GetTarget(ctx context.Context, targetType model.TargetType, id string) (*model.Target, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT type, id, code, name, status FROM targets WHERE type = ? AND id = ?`,
		targetType, id)

	var target model.Target
	if err := row.Scan(&target.Type, &target.ID, &target.Code, &target.Name, &target.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("target %s/%s: %w", targetType, id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}
	return &target, nil
}

// GetTargetByCode resolves an entity code token to a target. Codes are
// stored upper-cased; the lookup normalizes the same way.
func (s *SQLiteStorage) GetTargetByCode(ctx context.Context, code string) (*model.Target, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT type, id, code, name, status FROM targets WHERE code = ?`,
		strings.ToUpper(code))

	var target model.Target
	if err := row.Scan(&target.Type, &target.ID, &target.Code, &target.Name, &target.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("target code %s: %w", code, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get target by code: %w", err)
	}
	return &target, nil
}

// GetAllTargets retrieves the full target catalog.
func (s *SQLiteStorage) GetAllTargets(ctx context.Context) ([]model.Target, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, id, code, name, status FROM targets ORDER BY type, code, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get targets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var targets []model.Target
	for rows.Next() {
		var target model.Target
		if err := rows.Scan(&target.Type, &target.ID, &target.Code, &target.Name, &target.Status); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating targets: %w", err)
	}
	return targets, nil
}

// UpdateTargetStatus sets the cached business status of a target.
func (s *SQLiteStorage) UpdateTargetStatus(ctx context.Context, targetType model.TargetType, id, status string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE targets SET status = ? WHERE type = ? AND id = ?`,
		status, targetType, id)
	if err != nil {
		return fmt.Errorf("failed to update target status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("target %s/%s: %w", targetType, id, common.ErrNotFound)
	}
	return nil
}
