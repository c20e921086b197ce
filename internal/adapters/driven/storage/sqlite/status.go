package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// ==================== Status Store ====================

// statusStore implements driven.StatusStore.
type statusStore struct {
	store *Store
}

var _ driven.StatusStore = (*statusStore)(nil)

const statusColumns = `document_id, namespace, name, url, status, error, content_count, updated_at`

// Get retrieves a status by document ID.
func (s *statusStore) Get(ctx context.Context, documentID string) (*domain.DocumentStatus, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+statusColumns+` FROM document_status WHERE document_id = ?`, documentID)

	status, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Save stores or updates a status.
func (s *statusStore) Save(ctx context.Context, status domain.DocumentStatus) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_status (`+statusColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			namespace = excluded.namespace,
			name = excluded.name,
			url = excluded.url,
			status = excluded.status,
			error = excluded.error,
			content_count = excluded.content_count,
			updated_at = excluded.updated_at
	`, status.DocumentID, status.TenantIndexName, status.Name, status.URL,
		string(status.Status), status.Error, status.ContentCount, status.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving status: %w", err)
	}
	return nil
}

// List returns the statuses of a namespace ordered by document ID.
func (s *statusStore) List(ctx context.Context, namespace string) ([]domain.DocumentStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM document_status WHERE namespace = ? ORDER BY document_id`
	params := []any{namespace}
	if namespace == "" {
		query = `SELECT ` + statusColumns + ` FROM document_status ORDER BY document_id`
		params = nil
	}

	rows, err := s.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	out := []domain.DocumentStatus{}
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}
	return out, nil
}

// Delete removes a status.
func (s *statusStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		`DELETE FROM document_status WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting status: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatus(row scanner) (*domain.DocumentStatus, error) {
	var status domain.DocumentStatus
	var state string
	var updatedAt sql.NullTime
	if err := row.Scan(&status.DocumentID, &status.TenantIndexName, &status.Name, &status.URL,
		&state, &status.Error, &status.ContentCount, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	status.Status = domain.IngestStatus(state)
	if updatedAt.Valid {
		status.UpdatedAt = updatedAt.Time
	}
	return &status, nil
}
