package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// contentStore implements driven.ContentStore.
type contentStore struct {
	store *Store
}

var _ driven.ContentStore = (*contentStore)(nil)

// PutMany upserts records in one transaction. Records that cannot be
// serialised are reported in a *domain.PutError and the rest are committed.
func (s *contentStore) PutMany(ctx context.Context, records []domain.ContentRecord) error {
	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

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
		if _, err := tx.Exec(ctx, `
			INSERT INTO content_records (id, namespace, document_id, modality, page_number, extra, raw)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
			ON CONFLICT (id) DO UPDATE SET
				namespace = EXCLUDED.namespace,
				document_id = EXCLUDED.document_id,
				modality = EXCLUDED.modality,
				page_number = EXCLUDED.page_number,
				extra = EXCLUDED.extra,
				raw = EXCLUDED.raw
		`, rec.ID, meta.TenantIndexName, meta.SourceDocumentID, string(meta.Modality),
			meta.PageNumber, extra, raw); err != nil {
			return fmt.Errorf("inserting record %q: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
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

	rows, err := s.store.pool.Query(ctx, `
		SELECT id, namespace, document_id, modality, page_number, extra, raw
		FROM content_records WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.ContentRecord
		var modality string
		var page *int32
		var extra, raw []byte
		if err := rows.Scan(&rec.ID, &rec.Metadata.TenantIndexName, &rec.Metadata.SourceDocumentID,
			&modality, &page, &extra, &raw); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		rec.Metadata.Modality = domain.Modality(modality)
		if page != nil {
			p := int(*page)
			rec.Metadata.PageNumber = &p
		}
		var fields map[string]string
		if err := json.Unmarshal(extra, &fields); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata of %q: %w", rec.ID, err)
		}
		if len(fields) > 0 {
			rec.Metadata.Extra = fields
		}
		if rec.Raw, err = domain.DecodeRaw(raw); err != nil {
			s.store.log.Warn("skipping undecodable content record", zap.String("content_id", rec.ID), zap.Error(err))
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
	tag, err := s.store.pool.Exec(ctx, `DELETE FROM content_records WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteByDocument removes all records of a document in a namespace.
func (s *contentStore) DeleteByDocument(ctx context.Context, namespace, documentID string) (int, error) {
	tag, err := s.store.pool.Exec(ctx,
		`DELETE FROM content_records WHERE namespace = $1 AND document_id = $2`, namespace, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListIDs streams the IDs of a namespace in ascending order.
func (s *contentStore) ListIDs(ctx context.Context, namespace string) iter.Seq2[string, error] {
	if namespace == "" {
		return s.store.queryIDs(ctx, `SELECT id FROM content_records ORDER BY id`)
	}
	return s.store.queryIDs(ctx, `SELECT id FROM content_records WHERE namespace = $1 ORDER BY id`, namespace)
}

// Close is a no-op; the owning Store closes the pool.
func (s *contentStore) Close() error {
	return nil
}

// queryIDs yields the single text column of a query.
func (s *Store) queryIDs(ctx context.Context, query string, params ...any) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := s.pool.Query(ctx, query, params...)
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

// collectIDs drains rows of a single text column.
func collectIDs(rows pgx.Rows) ([]string, error) {
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
