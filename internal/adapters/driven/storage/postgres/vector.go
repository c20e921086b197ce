package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex on a pgvector column.
// Ranking is exact: 1 - cosine distance, ties broken by content ID.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// EnsureNamespace creates the namespace row if it does not exist.
func (v *vectorIndex) EnsureNamespace(ctx context.Context, namespace string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrConfiguration)
	}
	if _, err := v.store.pool.Exec(ctx,
		`INSERT INTO vector_namespaces (name, dimensions) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
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
	err := v.store.pool.QueryRow(ctx,
		`SELECT dimensions FROM vector_namespaces WHERE name = $1`, namespace).Scan(&dims)
	if errors.Is(err, pgx.ErrNoRows) {
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

	batch := &pgx.Batch{}
	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata of %q: %w", e.ContentID, err)
		}
		batch.Queue(`
			INSERT INTO vector_entries (namespace, content_id, document_id, embedding, metadata)
			VALUES ($1, $2, $3, $4, $5::jsonb)
			ON CONFLICT (namespace, content_id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata
		`, namespace, e.ContentID, e.Metadata[domain.MetaSourceDocumentID],
			pgvector.NewVector(e.Vector), string(meta))
	}

	tx, err := v.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting vectors: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search returns the top k entries by cosine similarity. Zero vectors,
// whose cosine distance is undefined, never match.
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
	if k <= 0 || isZero(query) {
		return []domain.VectorMatch{}, nil
	}

	rows, err := v.store.pool.Query(ctx, `
		SELECT content_id, 1 - (embedding <=> $2) AS score, metadata
		FROM vector_entries
		WHERE namespace = $1 AND vector_norm(embedding) > 0
		ORDER BY embedding <=> $2, content_id
		LIMIT $3
	`, namespace, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	defer rows.Close()

	matches := []domain.VectorMatch{}
	for rows.Next() {
		var m domain.VectorMatch
		var meta []byte
		if err := rows.Scan(&m.ContentID, &m.Score, &meta); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata of %q: %w", m.ContentID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Delete removes entries by content ID.
func (v *vectorIndex) Delete(ctx context.Context, namespace string, contentIDs []string) error {
	if len(contentIDs) == 0 {
		return nil
	}
	if _, err := v.store.pool.Exec(ctx,
		`DELETE FROM vector_entries WHERE namespace = $1 AND content_id = ANY($2)`,
		namespace, contentIDs); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// DeleteByDocument removes the entries of one source document.
func (v *vectorIndex) DeleteByDocument(ctx context.Context, namespace, documentID string) ([]string, error) {
	rows, err := v.store.pool.Query(ctx,
		`DELETE FROM vector_entries WHERE namespace = $1 AND document_id = $2 RETURNING content_id`,
		namespace, documentID)
	if err != nil {
		return nil, fmt.Errorf("deleting vectors: %w", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("deleting vectors: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListIDs streams the content IDs of a namespace in ascending order.
func (v *vectorIndex) ListIDs(ctx context.Context, namespace string) iter.Seq2[string, error] {
	return v.store.queryIDs(ctx,
		`SELECT content_id FROM vector_entries WHERE namespace = $1 ORDER BY content_id`, namespace)
}

// Close is a no-op; the owning Store closes the pool.
func (v *vectorIndex) Close() error {
	return nil
}
