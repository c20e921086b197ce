package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure StatusStore implements the interface.
var _ driven.StatusStore = (*StatusStore)(nil)

// StatusStore implements driven.StatusStore on the documents collection.
type StatusStore struct {
	coll *mongo.Collection
}

// documentStatus is the stored shape of a status.
type documentStatus struct {
	DocID        string    `bson:"doc_id"`
	ChannelID    string    `bson:"channel_id"`
	Name         string    `bson:"doc_name"`
	URL          string    `bson:"doc_url"`
	Status       string    `bson:"status"`
	Error        string    `bson:"error,omitempty"`
	ContentCount int       `bson:"content_count"`
	Timestamp    time.Time `bson:"timestamp"`
}

func fromDomain(s domain.DocumentStatus) documentStatus {
	return documentStatus{
		DocID:        s.DocumentID,
		ChannelID:    s.TenantIndexName,
		Name:         s.Name,
		URL:          s.URL,
		Status:       string(s.Status),
		Error:        s.Error,
		ContentCount: s.ContentCount,
		Timestamp:    s.UpdatedAt.UTC(),
	}
}

func (d documentStatus) toDomain() domain.DocumentStatus {
	return domain.DocumentStatus{
		DocumentID:      d.DocID,
		TenantIndexName: d.ChannelID,
		Name:            d.Name,
		URL:             d.URL,
		Status:          domain.IngestStatus(d.Status),
		Error:           d.Error,
		ContentCount:    d.ContentCount,
		UpdatedAt:       d.Timestamp,
	}
}

// Get retrieves a status by document ID.
func (s *StatusStore) Get(ctx context.Context, documentID string) (*domain.DocumentStatus, error) {
	var doc documentStatus
	err := s.coll.FindOne(ctx, bson.M{"doc_id": documentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding status: %w", err)
	}
	status := doc.toDomain()
	return &status, nil
}

// Save upserts a status by document ID.
func (s *StatusStore) Save(ctx context.Context, status domain.DocumentStatus) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"doc_id": status.DocumentID},
		fromDomain(status),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving status: %w", err)
	}
	return nil
}

// List returns the statuses of a namespace ordered by document ID.
func (s *StatusStore) List(ctx context.Context, namespace string) ([]domain.DocumentStatus, error) {
	filter := bson.M{}
	if namespace != "" {
		filter["channel_id"] = namespace
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}

	var docs []documentStatus
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding statuses: %w", err)
	}

	out := make([]domain.DocumentStatus, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Delete removes a status.
func (s *StatusStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"doc_id": documentID}); err != nil {
		return fmt.Errorf("deleting status: %w", err)
	}
	return nil
}
