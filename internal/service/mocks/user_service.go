package mocks

import (
	"context"

	"viewtube-server/internal/models"
	"viewtube-server/internal/service"
	"viewtube-server/internal/storage"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mock UserService
type UserService struct {
	mock.Mock
}

func (m *UserService) Register(ctx context.Context, input service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserService) Login(ctx context.Context, username, email, password string) (*models.User, *models.TokenDetails, error) {
	args := m.Called(ctx, username, email, password)
	user, _ := args.Get(0).(*models.User)
	td, _ := args.Get(1).(*models.TokenDetails)
	return user, td, args.Error(2)
}
func (m *UserService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
func (m *UserService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	args := m.Called(ctx, refreshToken)
	td, _ := args.Get(0).(*models.TokenDetails)
	return td, args.Error(1)
}
func (m *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	args := m.Called(ctx, userID, oldPassword, newPassword)
	return args.Error(0)
}
func (m *UserService) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserService) UpdateAccount(ctx context.Context, userID primitive.ObjectID, fullname, email string) (*models.User, error) {
	args := m.Called(ctx, userID, fullname, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error) {
	args := m.Called(ctx, userID, file)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserService) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error) {
	args := m.Called(ctx, userID, file)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
func (m *UserService) GetChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*models.ChannelProfile, error) {
	args := m.Called(ctx, username, viewer)
	profile, _ := args.Get(0).(*models.ChannelProfile)
	return profile, args.Error(1)
}
func (m *UserService) GetWatchHistory(ctx context.Context, userID primitive.ObjectID) ([]models.WatchHistoryVideo, error) {
	args := m.Called(ctx, userID)
	history, _ := args.Get(0).([]models.WatchHistoryVideo)
	return history, args.Error(1)
}
func (m *UserService) ToggleSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, subscriber, channel)
	return args.Bool(0), args.Error(1)
}
func (m *UserService) VerifyAccessToken(tokenString string) (*models.AccessClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*models.AccessClaims)
	return claims, args.Error(1)
}
