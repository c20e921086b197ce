package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// schema is applied statement by statement on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS content_records (
		id          TEXT PRIMARY KEY,
		namespace   TEXT NOT NULL,
		document_id TEXT NOT NULL,
		modality    TEXT NOT NULL DEFAULT '',
		page_number INTEGER,
		extra       JSONB NOT NULL DEFAULT '{}',
		raw         JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_records_document ON content_records (namespace, document_id)`,
	`CREATE TABLE IF NOT EXISTS vector_namespaces (
		name       TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS vector_entries (
		namespace   TEXT NOT NULL REFERENCES vector_namespaces (name) ON DELETE CASCADE,
		content_id  TEXT NOT NULL,
		document_id TEXT NOT NULL DEFAULT '',
		embedding   vector NOT NULL,
		metadata    JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (namespace, content_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vector_entries_document ON vector_entries (namespace, document_id)`,
	`CREATE TABLE IF NOT EXISTS document_status (
		document_id   TEXT PRIMARY KEY,
		namespace     TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		url           TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		content_count INTEGER NOT NULL DEFAULT 0,
		updated_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_status_namespace ON document_status (namespace)`,
}

// Store is a PostgreSQL database that provides the content store, vector
// index and status store through wrapper types.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore connects to dsn and creates the schema.
func NewStore(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	// The vector type must exist before pooled connections register it.
	if err := createExtension(ctx, dsn); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{pool: pool, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s.log.Debug("postgres store ready", zap.String("database", pool.Config().ConnConfig.Database))
	return s, nil
}

func createExtension(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ContentStore returns a ContentStore backed by this store.
func (s *Store) ContentStore() driven.ContentStore {
	return &contentStore{store: s}
}

// VectorIndex returns a VectorIndex backed by this store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// StatusStore returns a StatusStore backed by this store.
func (s *Store) StatusStore() driven.StatusStore {
	return &statusStore{store: s}
}
