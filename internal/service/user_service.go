package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"viewtube-server/internal/config"
	"viewtube-server/internal/models"
	"viewtube-server/internal/repository"
	"viewtube-server/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RegisterInput carries the registration form fields and media files.
type RegisterInput struct {
	Fullname   string
	Email      string
	Username   string
	Password   string
	Avatar     *storage.Upload
	CoverImage *storage.Upload
}

// UserService implements the user-facing operations: registration, the
// login/refresh token flow, profile updates and the aggregation reads.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, email, password string) (*models.User, *models.TokenDetails, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error
	GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateAccount(ctx context.Context, userID primitive.ObjectID, fullname, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error)
	UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error)
	GetChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*models.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID primitive.ObjectID) ([]models.WatchHistoryVideo, error)
	ToggleSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
	VerifyAccessToken(tokenString string) (*models.AccessClaims, error)
}

// Compile-time check to ensure userServiceImpl implements UserService
var _ UserService = (*userServiceImpl)(nil)

type userServiceImpl struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	media    storage.MediaStore
	cfg      *config.Config
	logger   *zap.Logger
}

// NewUserService creates a new instance of userServiceImpl.
func NewUserService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, media storage.MediaStore, cfg *config.Config, logger *zap.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		subRepo:  subRepo,
		media:    media,
		cfg:      cfg,
		logger:   logger.Named("UserService"),
	}
}

// Register creates a new user after uploading the avatar (required) and
// cover image (optional).
func (s *userServiceImpl) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	fullname := strings.TrimSpace(input.Fullname)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))
	password := input.Password

	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if fullname == "" || email == "" || username == "" || password == "" {
		s.logger.Warn("Registration attempt with empty required fields", logFields...)
		return nil, fmt.Errorf("all fields are required: %w", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
	}
	if input.Avatar == nil {
		s.logger.Warn("Registration attempt without avatar file", logFields...)
		return nil, fmt.Errorf("avatar file is required: %w", models.ErrInvalidInput)
	}

	// Best-effort pre-check; the unique indexes are the real guarantee.
	existing, err := s.userRepo.GetUserByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing user during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}
	if existing != nil {
		s.logger.Warn("Registration attempt for existing username or email", logFields...)
		if existing.Email == email {
			return nil, models.ErrEmailAlreadyExists
		}
		return nil, models.ErrUserAlreadyExists
	}

	avatarURL, err := s.media.Store(ctx, *input.Avatar)
	if err != nil {
		s.logger.Error("Avatar upload failed during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("avatar upload failed: %w", models.ErrUploadFailed)
	}

	var coverURL string
	if input.CoverImage != nil {
		coverURL, err = s.media.Store(ctx, *input.CoverImage)
		if err != nil {
			s.logger.Error("Cover image upload failed during registration", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("cover image upload failed: %w", models.ErrUploadFailed)
		}
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Fullname:   fullname,
		Email:      email,
		Username:   username,
		Password:   hashedPassword,
		Avatar:     avatarURL,
		CoverImage: coverURL,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Duplicate errors are already mapped by the repository.
		return nil, err
	}

	created, err := s.userRepo.GetUserByID(ctx, user.ID)
	if err != nil {
		s.logger.Error("Post-create lookup failed", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("something went wrong while creating user: %w", models.ErrInternalServer)
	}

	s.logger.Info("User registered successfully", zap.String("userID", created.ID.Hex()), zap.String("username", created.Username))
	return created, nil
}

// Login authenticates the user by username or email and issues a fresh token
// pair, persisting the new refresh token (rotation).
func (s *userServiceImpl) Login(ctx context.Context, username, email, password string) (*models.User, *models.TokenDetails, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" && email == "" {
		return nil, nil, fmt.Errorf("username or email is required: %w", models.ErrInvalidInput)
	}
	if password == "" {
		return nil, nil, fmt.Errorf("password is required: %w", models.ErrInvalidInput)
	}

	s.logger.Info("Login attempt", zap.String("username", username), zap.String("email", email))
	user, err := s.userRepo.GetUserByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("username", username), zap.String("email", email))
			return nil, nil, models.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPasswordHash(password, user.Password) {
		s.logger.Warn("Login failed: invalid password", zap.String("userID", user.ID.Hex()))
		return nil, nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokenPair(user)
	if err != nil {
		s.logger.Error("Failed to create tokens during login", zap.Error(err), zap.String("userID", user.ID.Hex()))
		return nil, nil, fmt.Errorf("failed to create tokens: %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, td.RefreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	user.RefreshToken = td.RefreshToken
	s.logger.Info("User logged in successfully", zap.String("userID", user.ID.Hex()))
	return user, td, nil
}

// Logout clears the stored refresh token.
func (s *userServiceImpl) Logout(ctx context.Context, userID primitive.ObjectID) error {
	log := s.logger.With(zap.String("userID", userID.Hex()))
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Nothing to clear; treat logout as idempotent.
			log.Info("Logout for unknown user, nothing to clear")
			return nil
		}
		log.Error("Failed to clear refresh token during logout", zap.Error(err))
		return err
	}
	log.Info("User logged out successfully")
	return nil
}

// Refresh validates the presented refresh token against the one on record
// and rotates the pair.
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	s.logger.Info("Token refresh attempt")

	if refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.verifyRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh attempt with invalid token", zap.Error(err))
		return nil, err
	}

	userID, err := claims.ObjectID()
	if err != nil {
		s.logger.Warn("Refresh token carries malformed user id", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Refresh attempt for missing user", zap.String("userID", userID.Hex()))
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user during refresh: %w", err)
	}

	// Single active refresh token per user: a stale or already rotated
	// token is rejected even when its signature is still valid.
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		s.logger.Warn("Refresh attempt with mismatched token", zap.String("userID", userID.Hex()))
		return nil, models.ErrTokenMismatch
	}

	td, err := s.createTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create new tokens during refresh: %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, td.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to save new refresh token: %w", err)
	}

	s.logger.Info("Token refreshed successfully", zap.String("userID", user.ID.Hex()))
	return td, nil
}

// ChangePassword verifies the old password before storing the new hash.
func (s *userServiceImpl) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	log := s.logger.With(zap.String("userID", userID.Hex()))

	if newPassword == "" {
		return fmt.Errorf("new password is required: %w", models.ErrInvalidInput)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !checkPasswordHash(oldPassword, user.Password) {
		log.Warn("Change password attempt with wrong old password")
		return fmt.Errorf("invalid old password: %w", models.ErrInvalidInput)
	}

	newHash, err := hashPassword(newPassword)
	if err != nil {
		log.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if _, err := s.userRepo.UpdateUserFields(ctx, userID, bson.M{"password": newHash}); err != nil {
		return err
	}

	log.Info("Password changed successfully")
	return nil
}

// GetUserByID returns the user document.
func (s *userServiceImpl) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// UpdateAccount updates fullname and/or email. At least one must be present.
func (s *userServiceImpl) UpdateAccount(ctx context.Context, userID primitive.ObjectID, fullname, email string) (*models.User, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.ToLower(strings.TrimSpace(email))

	if fullname == "" && email == "" {
		return nil, fmt.Errorf("fullname or email is required: %w", models.ErrInvalidInput)
	}

	set := bson.M{}
	if fullname != "" {
		set["fullname"] = fullname
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
		}
		set["email"] = email
	}

	user, err := s.userRepo.UpdateUserFields(ctx, userID, set)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account details updated", zap.String("userID", userID.Hex()))
	return user, nil
}

// UpdateAvatar uploads the new avatar and stores its URL.
func (s *userServiceImpl) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error) {
	url, err := s.media.Store(ctx, file)
	if err != nil {
		s.logger.Error("Avatar upload failed", zap.Error(err), zap.String("userID", userID.Hex()))
		return nil, fmt.Errorf("avatar upload failed: %w", models.ErrUploadFailed)
	}

	user, err := s.userRepo.UpdateUserFields(ctx, userID, bson.M{"avatar": url})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Avatar updated", zap.String("userID", userID.Hex()))
	return user, nil
}

// UpdateCoverImage uploads the new cover image and stores its URL.
func (s *userServiceImpl) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error) {
	url, err := s.media.Store(ctx, file)
	if err != nil {
		s.logger.Error("Cover image upload failed", zap.Error(err), zap.String("userID", userID.Hex()))
		return nil, fmt.Errorf("cover image upload failed: %w", models.ErrUploadFailed)
	}

	user, err := s.userRepo.UpdateUserFields(ctx, userID, bson.M{"coverImage": url})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cover image updated", zap.String("userID", userID.Hex()))
	return user, nil
}

// GetChannelProfile returns the channel profile with subscriber counts.
func (s *userServiceImpl) GetChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", models.ErrInvalidInput)
	}
	return s.userRepo.GetChannelProfile(ctx, username, viewer)
}

// GetWatchHistory returns the user's watched videos in stored order. An
// empty history is a valid result, not an error.
func (s *userServiceImpl) GetWatchHistory(ctx context.Context, userID primitive.ObjectID) ([]models.WatchHistoryVideo, error) {
	return s.userRepo.GetWatchHistory(ctx, userID)
}

// ToggleSubscription flips the subscriber -> channel edge.
func (s *userServiceImpl) ToggleSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	if subscriber == channel {
		return false, models.ErrSelfSubscription
	}

	// The channel must exist before an edge can point at it.
	if _, err := s.userRepo.GetUserByID(ctx, channel); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return false, models.ErrChannelNotFound
		}
		return false, err
	}

	return s.subRepo.Toggle(ctx, subscriber, channel)
}
