package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure TenantResolver implements the interface.
var _ driven.TenantResolver = (*TenantResolver)(nil)

// TenantResolver maps channels to namespaces through the channels
// collection. The namespace is the channel's _id in hex, which survives
// renames.
type TenantResolver struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// channel is the projection the resolver reads.
type channel struct {
	ID primitive.ObjectID `bson:"_id"`
}

// Resolve looks a channel up by ID, or by company and name.
func (r *TenantResolver) Resolve(ctx context.Context, identity domain.TenantIdentity) (string, error) {
	filter, err := channelFilter(identity)
	if err != nil {
		return "", err
	}

	var ch channel
	err = r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		r.log.Warn("channel not registered",
			zap.String("company_id", identity.CompanyID),
			zap.String("channel_name", identity.ChannelName))
		return "", fmt.Errorf("%w: channel %q", domain.ErrNotFound, identity.NormalisedChannelName())
	}
	if err != nil {
		return "", fmt.Errorf("finding channel: %w", err)
	}
	return ch.ID.Hex(), nil
}

// channelFilter prefers the channel ID. A channel name is only unique
// within a company, so name lookups need the company ID.
func channelFilter(identity domain.TenantIdentity) (bson.M, error) {
	if identity.ChannelID != "" {
		id, err := primitive.ObjectIDFromHex(identity.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("%w: channel ID %q is not an object ID", domain.ErrInvalidInput, identity.ChannelID)
		}
		return bson.M{"_id": id}, nil
	}
	if identity.ChannelName == "" || identity.CompanyID == "" {
		return nil, fmt.Errorf("%w: channel ID or company ID and channel name are required", domain.ErrInvalidInput)
	}
	return bson.M{
		"channel_name": identity.NormalisedChannelName(),
		"company_id":   identity.CompanyID,
	}, nil
}
