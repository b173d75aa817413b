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

const linkColumns = `id, record_id, target_type, target_id, confidence,
	method, active, created_at, unlinked_at`

// CreateLink persists a new active link. The partial unique index on
// (record, target type) enforces the at-most-one-active-link invariant;
// a violation surfaces as common.ErrDuplicateEntry so a retried apply can
// fetch the existing link instead of duplicating it.
func (s *SQLiteStorage) CreateLink(ctx context.Context, link *model.Link) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLink(link); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO links (id, record_id, target_type, target_id, confidence, method, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		link.ID, link.RecordID, link.TargetType, link.TargetID,
		link.Confidence, link.Method)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("active link for record %s target type %s: %w",
				link.RecordID, link.TargetType, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	link.Active = true
	return nil
}

// GetActiveLink retrieves the active link for a record and target type.
func (s *SQLiteStorage) GetActiveLink(ctx context.Context, recordID string, targetType model.TargetType) (*model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recordID, "recordID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+linkColumns+`
		FROM links
		WHERE record_id = ? AND target_type = ? AND active = 1`,
		recordID, targetType)

	link, err := scanLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active link for %s/%s: %w", recordID, targetType, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active link: %w", err)
	}
	return link, nil
}

// GetLinkByID retrieves a link by ID.
func (s *SQLiteStorage) GetLinkByID(ctx context.Context, id string) (*model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)

	link, err := scanLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("link %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// GetActiveLinkByThread finds the most recent active link held by any
// record sharing the given thread. This is the thread-inheritance tier's
// lookup.
func (s *SQLiteStorage) GetActiveLinkByThread(ctx context.Context, threadID string) (*model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(threadID, "threadID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT l.id, l.record_id, l.target_type, l.target_id, l.confidence,
			l.method, l.active, l.created_at, l.unlinked_at
		FROM links l
		JOIN records r ON r.id = l.record_id
		WHERE r.thread_id = ? AND l.active = 1
		ORDER BY l.created_at DESC
		LIMIT 1`, threadID)

	link, err := scanLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("thread link for %s: %w", threadID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get thread link: %w", err)
	}
	return link, nil
}

// GetLinksByRecord retrieves all links (active and superseded) for a record.
func (s *SQLiteStorage) GetLinksByRecord(ctx context.Context, recordID string) ([]model.Link, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recordID, "recordID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+linkColumns+`
		FROM links WHERE record_id = ?
		ORDER BY created_at ASC`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []model.Link
	for rows.Next() {
		link, scanErr := scanLink(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan link: %w", scanErr)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

// Unlink deactivates a link. Links are immutable otherwise; superseding a
// link always goes through an explicit unlink, never an overwrite.
func (s *SQLiteStorage) Unlink(ctx context.Context, linkID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(linkID, "linkID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE links SET active = 0, unlinked_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`, linkID)
	if err != nil {
		return fmt.Errorf("failed to unlink: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("active link %s: %w", linkID, common.ErrNotFound)
	}
	return nil
}

func scanLink(row rowScanner) (*model.Link, error) {
	var link model.Link
	var unlinkedAt sql.NullTime
	err := row.Scan(
		&link.ID, &link.RecordID, &link.TargetType, &link.TargetID,
		&link.Confidence, &link.Method, &link.Active,
		&link.CreatedAt, &unlinkedAt,
	)
	if err != nil {
		return nil, err
	}
	if unlinkedAt.Valid {
		link.UnlinkedAt = &unlinkedAt.Time
	}
	return &link, nil
}
