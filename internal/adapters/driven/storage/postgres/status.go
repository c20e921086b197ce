package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// statusStore implements driven.StatusStore.
type statusStore struct {
	store *Store
}

var _ driven.StatusStore = (*statusStore)(nil)

const statusColumns = `document_id, namespace, name, url, status, error, content_count, updated_at`

// Get retrieves a status by document ID.
func (s *statusStore) Get(ctx context.Context, documentID string) (*domain.DocumentStatus, error) {
	row := s.store.pool.QueryRow(ctx,
		`SELECT `+statusColumns+` FROM document_status WHERE document_id = $1`, documentID)
	status, err := scanStatus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	return status, nil
}

// Save stores or updates a status.
func (s *statusStore) Save(ctx context.Context, status domain.DocumentStatus) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO document_status (`+statusColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (document_id) DO UPDATE SET
			namespace = EXCLUDED.namespace,
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			content_count = EXCLUDED.content_count,
			updated_at = EXCLUDED.updated_at
	`, status.DocumentID, status.TenantIndexName, status.Name, status.URL,
		string(status.Status), status.Error, status.ContentCount, status.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving status: %w", err)
	}
	return nil
}

// List returns the statuses of a namespace ordered by document ID.
func (s *statusStore) List(ctx context.Context, namespace string) ([]domain.DocumentStatus, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT `+statusColumns+` FROM document_status
		 WHERE $1 = '' OR namespace = $1 ORDER BY document_id`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	out := []domain.DocumentStatus{}
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
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
	if _, err := s.store.pool.Exec(ctx,
		`DELETE FROM document_status WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting status: %w", err)
	}
	return nil
}

func scanStatus(row pgx.Row) (*domain.DocumentStatus, error) {
	var status domain.DocumentStatus
	var state string
	var updatedAt *time.Time
	if err := row.Scan(&status.DocumentID, &status.TenantIndexName, &status.Name, &status.URL,
		&state, &status.Error, &status.ContentCount, &updatedAt); err != nil {
		return nil, err
	}
	status.Status = domain.IngestStatus(state)
	if updatedAt != nil {
		status.UpdatedAt = *updatedAt
	}
	return &status, nil
}
