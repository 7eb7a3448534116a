package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/model"
)

// EnqueuePending inserts a pending classification unless an entry with the
// same normalized text is already open. The partial unique index makes the
// check-and-insert atomic; the returned bool reports whether a new row was
// created.
func (s *SQLiteStorage) EnqueuePending(ctx context.Context, item *model.PendingClassification) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validatePending(item); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_classifications (normalized_text, original_text, provenance, status)
		VALUES (?, ?, ?, 'pending')
		ON CONFLICT (normalized_text) WHERE status = 'pending' DO NOTHING
	`, item.NormalizedText, item.OriginalText, item.Provenance)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue pending classification: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get pending id: %w", err)
	}
	item.ID = id
	item.Status = model.PendingOpen
	return true, nil
}

// GetPending lists queue entries with the given status, oldest first.
func (s *SQLiteStorage) GetPending(ctx context.Context, status model.PendingStatus) ([]model.PendingClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, normalized_text, original_text, provenance, status, created_at
		FROM pending_classifications
		WHERE status = ?
		ORDER BY created_at, id
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.PendingClassification
	for rows.Next() {
		var item model.PendingClassification
		err := rows.Scan(
			&item.ID, &item.NormalizedText, &item.OriginalText,
			&item.Provenance, &item.Status, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending classification: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetPendingByID retrieves a single queue entry.
func (s *SQLiteStorage) GetPendingByID(ctx context.Context, id int64) (*model.PendingClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var item model.PendingClassification
	err := s.db.QueryRowContext(ctx, `
		SELECT id, normalized_text, original_text, provenance, status, created_at
		FROM pending_classifications
		WHERE id = ?
	`, id).Scan(
		&item.ID, &item.NormalizedText, &item.OriginalText,
		&item.Provenance, &item.Status, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending classification: %w", err)
	}
	return &item, nil
}

// SetPendingStatus marks a queue entry classified or dismissed.
func (s *SQLiteStorage) SetPendingStatus(ctx context.Context, id int64, status model.PendingStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_classifications SET status = ? WHERE id = ?`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update pending classification: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pending classification %d: %w", id, common.ErrNotFound)
	}
	return nil
}
