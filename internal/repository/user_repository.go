package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"viewtube-server/internal/db"
	"viewtube-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UserRepository provides access to the persisted user documents.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	UpdateUserFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
	GetChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*models.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, id primitive.ObjectID) ([]models.WatchHistoryVideo, error)
}

// Compile-time check to ensure mongoUserRepository implements UserRepository
var _ UserRepository = (*mongoUserRepository)(nil)

type mongoUserRepository struct {
	users   *mongo.Collection
	timeout time.Duration
	logger  *zap.Logger
}

// NewUserRepository creates a new MongoDB-backed UserRepository.
func NewUserRepository(database *mongo.Database, timeout time.Duration, logger *zap.Logger) UserRepository {
	return &mongoUserRepository{
		users:   database.Collection(db.UsersCollection),
		timeout: timeout,
		logger:  logger.Named("UserRepo"),
	}
}

// mapDuplicateKeyError translates a mongo duplicate-key error into the
// matching domain error by inspecting which unique index was violated.
func mapDuplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "email") {
		return models.ErrEmailAlreadyExists
	}
	return models.ErrUserAlreadyExists
}

// CreateUser inserts a new user document. Uniqueness of username and email is
// enforced by the collection's unique indexes, not by this method.
func (r *mongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if dupErr := mapDuplicateKeyError(err); dupErr != nil {
			r.logger.Warn("Attempted to create duplicate user",
				zap.String("username", user.Username), zap.String("email", user.Email))
			return dupErr
		}
		r.logger.Error("Failed to create user", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	r.logger.Info("User created successfully",
		zap.String("userID", user.ID.Hex()), zap.String("username", user.Username))
	return nil
}

// GetUserByID retrieves a user by ObjectID.
func (r *mongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user := &models.User{}
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by id", zap.String("userID", id.Hex()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id", zap.Error(err), zap.String("userID", id.Hex()))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// GetUserByUsernameOrEmail retrieves a user matching either identifier.
// Empty identifiers are skipped.
func (r *mongoUserRepository) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var or []bson.M
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, models.ErrInvalidInput
	}
	filter := db.NewFilter().Or(or...).Build()

	user := &models.User{}
	err := r.users.FindOne(ctx, filter).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by username/email",
				zap.String("username", username), zap.String("email", email))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by username/email", zap.Error(err))
		return nil, fmt.Errorf("failed to get user by username or email: %w", err)
	}
	return user, nil
}

// UpdateUserFields applies a $set update and returns the updated document.
func (r *mongoUserRepository) UpdateUserFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	user := &models.User{}
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		if dupErr := mapDuplicateKeyError(err); dupErr != nil {
			r.logger.Warn("Update would violate unique index", zap.String("userID", id.Hex()))
			return nil, dupErr
		}
		r.logger.Error("Failed to update user fields", zap.Error(err), zap.String("userID", id.Hex()))
		return nil, fmt.Errorf("failed to update user fields: %w", err)
	}
	return user, nil
}

// SetRefreshToken stores the single active refresh token for the user.
func (r *mongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"refreshToken": token,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		r.logger.Error("Failed to set refresh token", zap.Error(err), zap.String("userID", id.Hex()))
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token (logout).
func (r *mongoUserRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.users.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		r.logger.Error("Failed to clear refresh token", zap.Error(err), zap.String("userID", id.Hex()))
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// GetChannelProfile runs the channel-profile aggregation: the subscription
// collection is joined twice, once for the channel's followers and once for
// the channels this user follows, and the viewer's membership in the follower
// set decides isSubscribed.
func (r *mongoUserRepository) GetChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*models.ChannelProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := channelProfilePipeline(username, viewer)
	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Channel profile aggregation failed", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("channel profile aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.ChannelProfile
	if err := cursor.All(ctx, &results); err != nil {
		r.logger.Error("Failed to decode channel profile", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to decode channel profile: %w", err)
	}
	if len(results) == 0 {
		r.logger.Debug("Channel not found", zap.String("username", username))
		return nil, models.ErrChannelNotFound
	}
	return &results[0], nil
}

// channelProfilePipeline builds the aggregation pipeline for GetChannelProfile.
// Kept separate so the stage structure can be asserted in tests.
func channelProfilePipeline(username string, viewer *primitive.ObjectID) mongo.Pipeline {
	var isSubscribed interface{} = false
	if viewer != nil {
		isSubscribed = bson.M{"$cond": bson.M{
			"if":   bson.M{"$in": bson.A{*viewer, "$subscribers.subscriber"}},
			"then": true,
			"else": false,
		}}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed":              isSubscribed,
		}}},
		{{Key: "$project", Value: bson.M{
			"fullname":                  1,
			"username":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
	}
}

// watchHistoryResult is the decode target for the watch-history aggregation.
type watchHistoryResult struct {
	WatchHistory []models.WatchHistoryVideo `bson:"watchHistoryVideos"`
	Order        []primitive.ObjectID       `bson:"watchHistory"`
}

// GetWatchHistory joins the video collection by the user's stored history
// list, attaches a single owner summary to each video and returns the videos
// in the stored order. $lookup with an id list does not guarantee order, so
// the result is re-sorted explicitly.
func (r *mongoUserRepository) GetWatchHistory(ctx context.Context, id primitive.ObjectID) ([]models.WatchHistoryVideo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.users.Aggregate(ctx, watchHistoryPipeline(id))
	if err != nil {
		r.logger.Error("Watch history aggregation failed", zap.Error(err), zap.String("userID", id.Hex()))
		return nil, fmt.Errorf("watch history aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []watchHistoryResult
	if err := cursor.All(ctx, &results); err != nil {
		r.logger.Error("Failed to decode watch history", zap.Error(err), zap.String("userID", id.Hex()))
		return nil, fmt.Errorf("failed to decode watch history: %w", err)
	}
	if len(results) == 0 {
		return nil, models.ErrUserNotFound
	}

	return sortByHistoryOrder(results[0].WatchHistory, results[0].Order), nil
}

// watchHistoryPipeline builds the nested aggregation for GetWatchHistory.
func watchHistoryPipeline(id primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistoryVideos",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         db.UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{
							"fullname": 1,
							"username": 1,
							"avatar":   1,
						}},
					},
				}},
				bson.M{"$addFields": bson.M{
					"owner": bson.M{"$first": "$owner"},
				}},
			},
		}}},
		{{Key: "$project", Value: bson.M{
			"watchHistory":       1,
			"watchHistoryVideos": 1,
		}}},
	}
}

// sortByHistoryOrder re-orders joined videos to follow the stored id list.
func sortByHistoryOrder(videos []models.WatchHistoryVideo, order []primitive.ObjectID) []models.WatchHistoryVideo {
	if len(videos) == 0 {
		return []models.WatchHistoryVideo{}
	}
	byID := make(map[primitive.ObjectID]models.WatchHistoryVideo, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	sorted := make([]models.WatchHistoryVideo, 0, len(videos))
	for _, oid := range order {
		if v, ok := byID[oid]; ok {
			sorted = append(sorted, v)
		}
	}
	return sorted
}
