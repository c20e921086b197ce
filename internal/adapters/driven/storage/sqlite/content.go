package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// ==================== Content Store ====================

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

// PutMany upserts records in one transaction. Records that cannot be
// serialised are reported in a *domain.PutError and the rest are committed.
func (s *contentStore) PutMany(ctx context.Context, records []domain.ContentRecord) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO content_records (id, namespace, document_id, modality, page_number, extra, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			document_id = excluded.document_id,
			modality = excluded.modality,
			page_number = excluded.page_number,
			extra = excluded.extra,
			raw = excluded.raw
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	var failed []string
	var firstErr error
	for _, rec := range records {
		raw, extra, err := encodeRecord(rec)
		if err != nil {
			failed = append(failed, rec.ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		meta := rec.Metadata
		if _, err := stmt.ExecContext(ctx, rec.ID, meta.TenantIndexName, meta.SourceDocumentID,
			string(meta.Modality), nullInt(meta.PageNumber), extra, raw); err != nil {
			return fmt.Errorf("inserting record %q: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	if len(failed) > 0 {
		return &domain.PutError{FailedIDs: failed, Err: firstErr}
	}
	return nil
}

func encodeRecord(rec domain.ContentRecord) (raw, extra string, err error) {
	if rec.ID == "" {
		return "", "", fmt.Errorf("%w: empty content ID", domain.ErrInvalidInput)
	}
	rawJSON, err := domain.EncodeRaw(rec.Raw)
	if err != nil {
		return "", "", fmt.Errorf("record %q: %w", rec.ID, err)
	}
	extraJSON := []byte("{}")
	if len(rec.Metadata.Extra) > 0 {
		if extraJSON, err = json.Marshal(rec.Metadata.Extra); err != nil {
			return "", "", fmt.Errorf("record %q: marshalling metadata: %w", rec.ID, err)
		}
	}
	return string(rawJSON), string(extraJSON), nil
}

// GetMany fetches records by ID. Unknown IDs and records whose raw content
// cannot be decoded are absent from the result.
func (s *contentStore) GetMany(ctx context.Context, ids []string) (map[string]domain.ContentRecord, error) {
	out := make(map[string]domain.ContentRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, namespace, document_id, modality, page_number, extra, raw
		FROM content_records WHERE id IN (`+placeholders(len(ids))+`)
	`, args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.ContentRecord
		var modality, extra, raw string
		var page sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Metadata.TenantIndexName, &rec.Metadata.SourceDocumentID,
			&modality, &page, &extra, &raw); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		rec.Metadata.Modality = domain.Modality(modality)
		if page.Valid {
			p := int(page.Int64)
			rec.Metadata.PageNumber = &p
		}
		if extra != "" && extra != "{}" {
			if err := json.Unmarshal([]byte(extra), &rec.Metadata.Extra); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata of %q: %w", rec.ID, err)
			}
		}
		if rec.Raw, err = domain.DecodeRaw([]byte(raw)); err != nil {
			// One corrupt row must not hide the others; reconcile removes it.
			logger.Warn("Skipping content record %s: %v", rec.ID, err)
			continue
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

// DeleteMany removes records by ID.
func (s *contentStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := s.store.db.ExecContext(ctx,
		`DELETE FROM content_records WHERE id IN (`+placeholders(len(ids))+`)`, args(ids)...)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted records: %w", err)
	}
	return int(n), nil
}

// DeleteByDocument removes all records of a document in a namespace.
func (s *contentStore) DeleteByDocument(ctx context.Context, namespace, documentID string) (int, error) {
	result, err := s.store.db.ExecContext(ctx,
		`DELETE FROM content_records WHERE namespace = ? AND document_id = ?`, namespace, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted records: %w", err)
	}
	return int(n), nil
}

// ListIDs streams the IDs of a namespace in ascending order.
func (s *contentStore) ListIDs(ctx context.Context, namespace string) iter.Seq2[string, error] {
	query := `SELECT id FROM content_records WHERE namespace = ? ORDER BY id`
	params := []any{namespace}
	if namespace == "" {
		query = `SELECT id FROM content_records ORDER BY id`
		params = nil
	}
	return queryIDs(ctx, s.store.db, query, params...)
}

// Close is a no-op; the owning Store closes the database.
func (s *contentStore) Close() error {
	return nil
}

// queryIDs yields the single string column of a query.
func queryIDs(ctx context.Context, db *sql.DB, query string, params ...any) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := db.QueryContext(ctx, query, params...)
		if err != nil {
			yield("", fmt.Errorf("querying IDs: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				yield("", fmt.Errorf("scanning ID: %w", err))
				return
			}
			if !yield(id, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", fmt.Errorf("iterating IDs: %w", err))
		}
	}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
