package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/common"
	"github.com/lukassherman27/Benlsey-Operating-System-sub007/internal/model"
)

// SaveRecords stores normalized records delivered by the ingestion
// pipeline. Re-imported records are ignored; the linker never mutates a
// record after it lands.
func (s *SQLiteStorage) SaveRecords(ctx context.Context, records []model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}
	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, sender, domain, subject, thread_id, body, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		record := &records[i]
		var thread sql.NullString
		if record.ThreadID != "" {
			thread = sql.NullString{String: record.ThreadID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			record.ID, record.Sender, record.Domain, record.Subject,
			thread, record.Body, record.Timestamp); err != nil {
			return fmt.Errorf("failed to save record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ID.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, sender, domain, subject, thread_id, body, timestamp
		FROM records WHERE id = ?`, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// GetUnresolvedRecords retrieves records that hold no active link and no
// pending suggestion, oldest first. These are the matcher's work queue.
func (s *SQLiteStorage) GetUnresolvedRecords(ctx context.Context, limit int) ([]model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.sender, r.domain, r.subject, r.thread_id, r.body, r.timestamp
		FROM records r
		WHERE NOT EXISTS (
			SELECT 1 FROM links l WHERE l.record_id = r.id AND l.active = 1
		)
		AND NOT EXISTS (
			SELECT 1 FROM suggestions s
			WHERE s.record_id = r.id AND s.status IN ('pending', 'approved')
		)
		ORDER BY r.timestamp ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unresolved records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan record: %w", scanErr)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func scanRecord(row rowScanner) (*model.Record, error) {
	var record model.Record
	var thread sql.NullString
	err := row.Scan(
		&record.ID, &record.Sender, &record.Domain, &record.Subject,
		&thread, &record.Body, &record.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if thread.Valid {
		record.ThreadID = thread.String
	}
	return &record, nil
}
