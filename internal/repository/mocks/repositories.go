package mocks

import (
	"context"

	"viewtube-server/internal/models"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) UpdateUserFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	args := m.Called(ctx, id, set)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}
func (m *UserRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *UserRepository) GetChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*models.ChannelProfile, error) {
	args := m.Called(ctx, username, viewer)
	profile, _ := args.Get(0).(*models.ChannelProfile)
	return profile, args.Error(1)
}
func (m *UserRepository) GetWatchHistory(ctx context.Context, id primitive.ObjectID) ([]models.WatchHistoryVideo, error) {
	args := m.Called(ctx, id)
	history, _ := args.Get(0).([]models.WatchHistoryVideo)
	return history, args.Error(1)
}

// Mock SubscriptionRepository
type SubscriptionRepository struct {
	mock.Mock
}

func (m *SubscriptionRepository) Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, subscriber, channel)
	return args.Bool(0), args.Error(1)
}
