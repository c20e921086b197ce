// Package mongo keeps document statuses and channel registrations in the
// MongoDB registration database.
//
// Collections:
//
//   - documents: one status per source document, keyed by doc_id
//   - channels: registered chat channels; a channel's _id is its namespace
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names.
const (
	DocumentsCollection = "documents"
	ChannelsCollection  = "channels"
)

// Store wraps a connected client and the registration database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore connects to uri and opens database.
func NewStore(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("mongo: uri and database are required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database), log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.log.Debug("mongo store ready", zap.String("database", database))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(DocumentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "doc_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "channel_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating document indexes: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// StatusStore returns a StatusStore backed by the documents collection.
func (s *Store) StatusStore() *StatusStore {
	return &StatusStore{coll: s.db.Collection(DocumentsCollection)}
}

// TenantResolver returns a TenantResolver backed by the channels collection.
func (s *Store) TenantResolver() *TenantResolver {
	return &TenantResolver{coll: s.db.Collection(ChannelsCollection), log: s.log}
}
