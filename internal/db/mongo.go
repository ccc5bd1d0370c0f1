package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the application.
const (
	UsersCollection         = "users"
	VideosCollection        = "videos"
	SubscriptionsCollection = "subscriptions"
)

// OpenConnection connects to MongoDB and pings it before returning the database handle.
func OpenConnection(uri string, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the unique indexes the application relies on for
// correctness. The pre-insert existence checks in the service layer are a
// best-effort optimization only; these indexes are the real guarantee.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	users := database.Collection(UsersCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	subs := database.Collection(SubscriptionsCollection)
	_, err = subs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "channel", Value: 1}},
		},
	})
	return err
}
