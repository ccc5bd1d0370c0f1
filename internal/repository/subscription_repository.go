package repository

import (
	"context"
	"fmt"
	"time"

	"viewtube-server/internal/db"
	"viewtube-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SubscriptionRepository manages subscriber -> channel edges.
type SubscriptionRepository interface {
	// Toggle creates the edge if absent and removes it if present.
	// Returns true when the subscriber ends up subscribed.
	Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
}

var _ SubscriptionRepository = (*mongoSubscriptionRepository)(nil)

type mongoSubscriptionRepository struct {
	subs    *mongo.Collection
	timeout time.Duration
	logger  *zap.Logger
}

// NewSubscriptionRepository creates a new MongoDB-backed SubscriptionRepository.
func NewSubscriptionRepository(database *mongo.Database, timeout time.Duration, logger *zap.Logger) SubscriptionRepository {
	return &mongoSubscriptionRepository{
		subs:    database.Collection(db.SubscriptionsCollection),
		timeout: timeout,
		logger:  logger.Named("SubscriptionRepo"),
	}
}

func (r *mongoSubscriptionRepository) Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"subscriber": subscriber, "channel": channel}

	res, err := r.subs.DeleteOne(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to remove subscription edge", zap.Error(err))
		return false, fmt.Errorf("failed to remove subscription: %w", err)
	}
	if res.DeletedCount > 0 {
		r.logger.Info("Subscription removed",
			zap.String("subscriber", subscriber.Hex()), zap.String("channel", channel.Hex()))
		return false, nil
	}

	now := time.Now().UTC()
	_, err = r.subs.InsertOne(ctx, models.Subscription{
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		// A concurrent toggle can race the delete; the unique index resolves it.
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		r.logger.Error("Failed to create subscription edge", zap.Error(err))
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}
	r.logger.Info("Subscription created",
		zap.String("subscriber", subscriber.Hex()), zap.String("channel", channel.Hex()))
	return true, nil
}
