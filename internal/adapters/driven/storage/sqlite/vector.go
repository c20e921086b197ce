package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/bruteforce"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with a full scan of the
// namespace per query.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// EnsureNamespace creates the namespace row if it does not exist.
func (v *vectorIndex) EnsureNamespace(ctx context.Context, namespace string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrConfiguration)
	}
	if _, err := v.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO vector_namespaces (name, dimensions) VALUES (?, ?)`,
		namespace, dimensions); err != nil {
		return fmt.Errorf("creating namespace: %w", err)
	}

	existing, err := v.dimensions(ctx, namespace)
	if err != nil {
		return err
	}
	if existing != dimensions {
		return fmt.Errorf("%w: namespace %q has %d, want %d",
			domain.ErrDimensionMismatch, namespace, existing, dimensions)
	}
	return nil
}

func (v *vectorIndex) dimensions(ctx context.Context, namespace string) (int, error) {
	var dims int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT dimensions FROM vector_namespaces WHERE name = ?`, namespace).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", domain.ErrNamespaceNotFound, namespace)
	}
	if err != nil {
		return 0, fmt.Errorf("reading namespace: %w", err)
	}
	return dims, nil
}

// Upsert writes entries in one transaction; all are validated first.
func (v *vectorIndex) Upsert(ctx context.Context, namespace string, entries []domain.VectorEntry) error {
	dims, err := v.dimensions(ctx, namespace)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: entry %q has %d, namespace %q has %d",
				domain.ErrDimensionMismatch, e.ContentID, len(e.Vector), namespace, dims)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_entries (namespace, content_id, document_id, vector, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, content_id) DO UPDATE SET
			document_id = excluded.document_id,
			vector = excluded.vector,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata of %q: %w", e.ContentID, err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, e.ContentID,
			e.Metadata[domain.MetaSourceDocumentID], bruteforce.Encode(e.Vector), string(meta)); err != nil {
			return fmt.Errorf("inserting vector %q: %w", e.ContentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scans the namespace and returns the top k entries.
func (v *vectorIndex) Search(ctx context.Context, namespace string, query []float32, k int) ([]domain.VectorMatch, error) {
	dims, err := v.dimensions(ctx, namespace)
	if errors.Is(err, domain.ErrNamespaceNotFound) {
		return []domain.VectorMatch{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d, namespace %q has %d",
			domain.ErrDimensionMismatch, len(query), namespace, dims)
	}

	rows, err := v.store.db.QueryContext(ctx,
		`SELECT content_id, vector, metadata FROM vector_entries WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var candidates []bruteforce.Candidate
	for rows.Next() {
		var c bruteforce.Candidate
		var blob []byte
		var meta string
		if err := rows.Scan(&c.ContentID, &blob, &meta); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if c.Vector, err = bruteforce.Decode(blob); err != nil {
			return nil, fmt.Errorf("decoding vector %q: %w", c.ContentID, err)
		}
		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata of %q: %w", c.ContentID, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return bruteforce.Rank(query, candidates, k)
}

// Delete removes entries by content ID.
func (v *vectorIndex) Delete(ctx context.Context, namespace string, contentIDs []string) error {
	if len(contentIDs) == 0 {
		return nil
	}
	params := append([]any{namespace}, args(contentIDs)...)
	if _, err := v.store.db.ExecContext(ctx,
		`DELETE FROM vector_entries WHERE namespace = ? AND content_id IN (`+placeholders(len(contentIDs))+`)`,
		params...); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// DeleteByDocument removes the entries of one source document.
func (v *vectorIndex) DeleteByDocument(ctx context.Context, namespace, documentID string) ([]string, error) {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx,
		`SELECT content_id FROM vector_entries WHERE namespace = ? AND document_id = ?`, namespace, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning vector ID: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vector IDs: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vector_entries WHERE namespace = ? AND document_id = ?`, namespace, documentID); err != nil {
		return nil, fmt.Errorf("deleting vectors: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

// ListIDs streams the content IDs of a namespace in ascending order.
func (v *vectorIndex) ListIDs(ctx context.Context, namespace string) iter.Seq2[string, error] {
	return queryIDs(ctx, v.store.db,
		`SELECT content_id FROM vector_entries WHERE namespace = ? ORDER BY content_id`, namespace)
}

// Close is a no-op; the owning Store closes the database.
func (v *vectorIndex) Close() error {
	return nil
}
