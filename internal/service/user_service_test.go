package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"viewtube-server/internal/config"
	"viewtube-server/internal/models"
	repositoryMocks "viewtube-server/internal/repository/mocks"
	"viewtube-server/internal/service"
	"viewtube-server/internal/storage"
	storageMocks "viewtube-server/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "unit-test-access-secret",
		RefreshTokenSecret: "unit-test-refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    240 * time.Hour,
	}
}

type testDeps struct {
	userRepo *repositoryMocks.UserRepository
	subRepo  *repositoryMocks.SubscriptionRepository
	media    *storageMocks.MediaStore
}

func newTestService() (service.UserService, *testDeps) {
	deps := &testDeps{
		userRepo: new(repositoryMocks.UserRepository),
		subRepo:  new(repositoryMocks.SubscriptionRepository),
		media:    new(storageMocks.MediaStore),
	}
	svc := service.NewUserService(deps.userRepo, deps.subRepo, deps.media, newTestConfig(), zap.NewNop())
	return svc, deps
}

func hashedTestPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func avatarUpload() *storage.Upload {
	return &storage.Upload{
		Body:        strings.NewReader("fake image bytes"),
		Filename:    "avatar.png",
		ContentType: "image/png",
		Size:        16,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful registration", func(t *testing.T) {
		svc, deps := newTestService()
		createdID := primitive.NewObjectID()

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "johndoe", "john@example.com").
			Return(nil, models.ErrUserNotFound).Once()
		deps.media.On("Store", ctx, mock.AnythingOfType("storage.Upload")).
			Return("https://cdn.example.com/media/avatar.png", nil).Once()
		deps.userRepo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) {
				user := args.Get(1).(*models.User)
				user.ID = createdID
			}).Return(nil).Once()
		deps.userRepo.On("GetUserByID", ctx, createdID).
			Return(&models.User{
				ID:       createdID,
				Fullname: "John Doe",
				Email:    "john@example.com",
				Username: "johndoe",
				Avatar:   "https://cdn.example.com/media/avatar.png",
			}, nil).Once()

		user, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "John@Example.com ",
			Username: " JohnDoe",
			Password: "password123",
			Avatar:   avatarUpload(),
		})
		require.NoError(t, err)
		assert.Equal(t, createdID, user.ID)
		assert.Equal(t, "johndoe", user.Username, "Username must be lowercased and trimmed")
		assert.Equal(t, "john@example.com", user.Email, "Email must be lowercased and trimmed")
		deps.userRepo.AssertExpectations(t)
		deps.media.AssertExpectations(t)
	})

	t.Run("Missing required fields", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "john@example.com",
			Username: "",
			Password: "password123",
			Avatar:   avatarUpload(),
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Invalid email format", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "not-an-email",
			Username: "johndoe",
			Password: "password123",
			Avatar:   avatarUpload(),
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Missing avatar", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "john@example.com",
			Username: "johndoe",
			Password: "password123",
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Existing email", func(t *testing.T) {
		svc, deps := newTestService()

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "johndoe", "john@example.com").
			Return(&models.User{
				ID:       primitive.NewObjectID(),
				Username: "otheruser",
				Email:    "john@example.com",
			}, nil).Once()

		_, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "john@example.com",
			Username: "johndoe",
			Password: "password123",
			Avatar:   avatarUpload(),
		})
		assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Existing username", func(t *testing.T) {
		svc, deps := newTestService()

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "johndoe", "john@example.com").
			Return(&models.User{
				ID:       primitive.NewObjectID(),
				Username: "johndoe",
				Email:    "other@example.com",
			}, nil).Once()

		_, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "john@example.com",
			Username: "johndoe",
			Password: "password123",
			Avatar:   avatarUpload(),
		})
		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Avatar upload failure", func(t *testing.T) {
		svc, deps := newTestService()

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "johndoe", "john@example.com").
			Return(nil, models.ErrUserNotFound).Once()
		deps.media.On("Store", ctx, mock.AnythingOfType("storage.Upload")).
			Return("", errors.New("bucket unreachable")).Once()

		_, err := svc.Register(ctx, service.RegisterInput{
			Fullname: "John Doe",
			Email:    "john@example.com",
			Username: "johndoe",
			Password: "password123",
			Avatar:   avatarUpload(),
		})
		assert.ErrorIs(t, err, models.ErrUploadFailed)
		deps.userRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	password := "password123"

	t.Run("Successful login", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		stored := &models.User{
			ID:       userID,
			Username: "johndoe",
			Email:    "john@example.com",
			Password: hashedTestPassword(t, password),
		}

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "johndoe", "").
			Return(stored, nil).Once()
		deps.userRepo.On("SetRefreshToken", ctx, userID, mock.AnythingOfType("string")).
			Return(nil).Once()

		user, td, err := svc.Login(ctx, "JohnDoe", "", password)
		require.NoError(t, err)
		require.NotNil(t, td)
		assert.NotEmpty(t, td.AccessToken)
		assert.NotEmpty(t, td.RefreshToken)
		assert.Equal(t, td.RefreshToken, user.RefreshToken, "Returned user must carry the freshly issued refresh token")

		claims, err := svc.VerifyAccessToken(td.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID.Hex(), claims.UserID)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("User not found", func(t *testing.T) {
		svc, deps := newTestService()

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "ghost", "").
			Return(nil, models.ErrUserNotFound).Once()

		_, _, err := svc.Login(ctx, "ghost", "", password)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("Wrong password", func(t *testing.T) {
		svc, deps := newTestService()
		stored := &models.User{
			ID:       primitive.NewObjectID(),
			Username: "johndoe",
			Password: hashedTestPassword(t, password),
		}

		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, "johndoe", "").
			Return(stored, nil).Once()

		_, _, err := svc.Login(ctx, "johndoe", "", "wrong-password")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		deps.userRepo.AssertNotCalled(t, "SetRefreshToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing identifier", func(t *testing.T) {
		svc, _ := newTestService()

		_, _, err := svc.Login(ctx, "", "", password)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Missing password", func(t *testing.T) {
		svc, _ := newTestService()

		_, _, err := svc.Login(ctx, "johndoe", "", "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful logout", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()

		deps.userRepo.On("ClearRefreshToken", ctx, userID).Return(nil).Once()

		err := svc.Logout(ctx, userID)
		assert.NoError(t, err)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Logout is idempotent for unknown user", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()

		deps.userRepo.On("ClearRefreshToken", ctx, userID).Return(models.ErrUserNotFound).Once()

		err := svc.Logout(ctx, userID)
		assert.NoError(t, err)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	password := "password123"

	// login issues a real refresh token pair through the service so the
	// refresh flow can be exercised end to end against the mocks.
	login := func(t *testing.T, svc service.UserService, deps *testDeps, user *models.User) *models.TokenDetails {
		t.Helper()
		deps.userRepo.On("GetUserByUsernameOrEmail", ctx, user.Username, "").
			Return(user, nil).Once()
		deps.userRepo.On("SetRefreshToken", ctx, user.ID, mock.AnythingOfType("string")).
			Return(nil).Once()
		_, td, err := svc.Login(ctx, user.Username, "", password)
		require.NoError(t, err)
		return td
	}

	t.Run("Successful refresh rotates the pair", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		user := &models.User{
			ID:       userID,
			Username: "johndoe",
			Password: hashedTestPassword(t, password),
		}
		td := login(t, svc, deps, user)
		user.RefreshToken = td.RefreshToken

		deps.userRepo.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		deps.userRepo.On("SetRefreshToken", ctx, userID, mock.AnythingOfType("string")).
			Return(nil).Once()

		rotated, err := svc.Refresh(ctx, td.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEmpty(t, rotated.RefreshToken)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Empty token", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Refresh(ctx, "")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("Garbage token", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Refresh(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})

	t.Run("Rotated token is rejected", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		user := &models.User{
			ID:       userID,
			Username: "johndoe",
			Password: hashedTestPassword(t, password),
		}
		td := login(t, svc, deps, user)
		// A different token is on record, as if another session refreshed.
		user.RefreshToken = "some-other-stored-token"

		deps.userRepo.On("GetUserByID", ctx, userID).Return(user, nil).Once()

		_, err := svc.Refresh(ctx, td.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenMismatch)
		// The login helper already triggers one SetRefreshToken call; the
		// rejected refresh must not add another.
		deps.userRepo.AssertNumberOfCalls(t, "SetRefreshToken", 1)
	})

	t.Run("Missing user", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		user := &models.User{
			ID:       userID,
			Username: "johndoe",
			Password: hashedTestPassword(t, password),
		}
		td := login(t, svc, deps, user)

		deps.userRepo.On("GetUserByID", ctx, userID).
			Return(nil, models.ErrUserNotFound).Once()

		_, err := svc.Refresh(ctx, td.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	oldPassword := "old-password"

	t.Run("Successful change", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		user := &models.User{ID: userID, Password: hashedTestPassword(t, oldPassword)}

		deps.userRepo.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		deps.userRepo.On("UpdateUserFields", ctx, userID, mock.MatchedBy(func(set bson.M) bool {
			hash, ok := set["password"].(string)
			return ok && bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")) == nil
		})).Return(user, nil).Once()

		err := svc.ChangePassword(ctx, userID, oldPassword, "new-password")
		assert.NoError(t, err)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Wrong old password", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		user := &models.User{ID: userID, Password: hashedTestPassword(t, oldPassword)}

		deps.userRepo.On("GetUserByID", ctx, userID).Return(user, nil).Once()

		err := svc.ChangePassword(ctx, userID, "wrong-old-password", "new-password")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		deps.userRepo.AssertNotCalled(t, "UpdateUserFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty new password", func(t *testing.T) {
		svc, _ := newTestService()

		err := svc.ChangePassword(ctx, primitive.NewObjectID(), oldPassword, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Updates both fields", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		updated := &models.User{ID: userID, Fullname: "New Name", Email: "new@example.com"}

		deps.userRepo.On("UpdateUserFields", ctx, userID, bson.M{
			"fullname": "New Name",
			"email":    "new@example.com",
		}).Return(updated, nil).Once()

		user, err := svc.UpdateAccount(ctx, userID, "New Name", "New@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Fullname only", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		updated := &models.User{ID: userID, Fullname: "New Name"}

		deps.userRepo.On("UpdateUserFields", ctx, userID, bson.M{"fullname": "New Name"}).
			Return(updated, nil).Once()

		_, err := svc.UpdateAccount(ctx, userID, "New Name", "")
		assert.NoError(t, err)
	})

	t.Run("Empty update", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.UpdateAccount(ctx, primitive.NewObjectID(), "", "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Invalid email", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.UpdateAccount(ctx, primitive.NewObjectID(), "", "not-an-email")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestUpdateAvatar(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful upload", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()
		updated := &models.User{ID: userID, Avatar: "https://cdn.example.com/media/new.png"}

		deps.media.On("Store", ctx, mock.AnythingOfType("storage.Upload")).
			Return("https://cdn.example.com/media/new.png", nil).Once()
		deps.userRepo.On("UpdateUserFields", ctx, userID, bson.M{"avatar": "https://cdn.example.com/media/new.png"}).
			Return(updated, nil).Once()

		user, err := svc.UpdateAvatar(ctx, userID, *avatarUpload())
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/media/new.png", user.Avatar)
		deps.media.AssertExpectations(t)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Upload failure", func(t *testing.T) {
		svc, deps := newTestService()

		deps.media.On("Store", ctx, mock.AnythingOfType("storage.Upload")).
			Return("", errors.New("bucket unreachable")).Once()

		_, err := svc.UpdateAvatar(ctx, primitive.NewObjectID(), *avatarUpload())
		assert.ErrorIs(t, err, models.ErrUploadFailed)
		deps.userRepo.AssertNotCalled(t, "UpdateUserFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetChannelProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		svc, deps := newTestService()
		viewer := primitive.NewObjectID()
		profile := &models.ChannelProfile{
			Username:         "channelname",
			SubscribersCount: 42,
			IsSubscribed:     true,
		}

		deps.userRepo.On("GetChannelProfile", ctx, "channelname", &viewer).
			Return(profile, nil).Once()

		got, err := svc.GetChannelProfile(ctx, " ChannelName ", &viewer)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.SubscribersCount)
		assert.True(t, got.IsSubscribed)
		deps.userRepo.AssertExpectations(t)
	})

	t.Run("Empty username", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.GetChannelProfile(ctx, "  ", nil)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Not found", func(t *testing.T) {
		svc, deps := newTestService()

		deps.userRepo.On("GetChannelProfile", ctx, "ghost", (*primitive.ObjectID)(nil)).
			Return(nil, models.ErrChannelNotFound).Once()

		_, err := svc.GetChannelProfile(ctx, "ghost", nil)
		assert.ErrorIs(t, err, models.ErrChannelNotFound)
	})
}

func TestGetWatchHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty history is a valid result", func(t *testing.T) {
		svc, deps := newTestService()
		userID := primitive.NewObjectID()

		deps.userRepo.On("GetWatchHistory", ctx, userID).
			Return([]models.WatchHistoryVideo{}, nil).Once()

		history, err := svc.GetWatchHistory(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestToggleSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("Subscribe", func(t *testing.T) {
		svc, deps := newTestService()
		subscriber := primitive.NewObjectID()
		channel := primitive.NewObjectID()

		deps.userRepo.On("GetUserByID", ctx, channel).
			Return(&models.User{ID: channel}, nil).Once()
		deps.subRepo.On("Toggle", ctx, subscriber, channel).Return(true, nil).Once()

		subscribed, err := svc.ToggleSubscription(ctx, subscriber, channel)
		require.NoError(t, err)
		assert.True(t, subscribed)
		deps.subRepo.AssertExpectations(t)
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		svc, deps := newTestService()
		subscriber := primitive.NewObjectID()
		channel := primitive.NewObjectID()

		deps.userRepo.On("GetUserByID", ctx, channel).
			Return(&models.User{ID: channel}, nil).Once()
		deps.subRepo.On("Toggle", ctx, subscriber, channel).Return(false, nil).Once()

		subscribed, err := svc.ToggleSubscription(ctx, subscriber, channel)
		require.NoError(t, err)
		assert.False(t, subscribed)
	})

	t.Run("Self subscription", func(t *testing.T) {
		svc, deps := newTestService()
		id := primitive.NewObjectID()

		_, err := svc.ToggleSubscription(ctx, id, id)
		assert.ErrorIs(t, err, models.ErrSelfSubscription)
		deps.subRepo.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing channel", func(t *testing.T) {
		svc, deps := newTestService()
		subscriber := primitive.NewObjectID()
		channel := primitive.NewObjectID()

		deps.userRepo.On("GetUserByID", ctx, channel).
			Return(nil, models.ErrUserNotFound).Once()

		_, err := svc.ToggleSubscription(ctx, subscriber, channel)
		assert.ErrorIs(t, err, models.ErrChannelNotFound)
		deps.subRepo.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything)
	})
}
