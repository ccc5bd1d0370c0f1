package service

import (
	"errors"
	"fmt"
	"time"

	"viewtube-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "viewtube-server"

// hashPassword generates a bcrypt hash of the password.
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain text password with a stored hash.
// bcrypt extracts its own salt from the hash and compares in constant time.
func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// issueAccessToken signs a short-lived access token carrying the user's
// identity and a subset of profile fields.
func (s *userServiceImpl) issueAccessToken(user *models.User, now time.Time) (string, int64, error) {
	expires := now.Add(s.cfg.AccessTokenTTL)
	claims := &models.AccessClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		Fullname: user.Fullname,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.Hex(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expires.Unix(), nil
}

// issueRefreshToken signs a longer-lived refresh token carrying only identity.
func (s *userServiceImpl) issueRefreshToken(user *models.User, now time.Time) (string, int64, error) {
	expires := now.Add(s.cfg.RefreshTokenTTL)
	claims := &models.RefreshClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.Hex(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.RefreshTokenSecret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, expires.Unix(), nil
}

// createTokenPair issues a fresh access+refresh pair for the user.
// Persisting the refresh token is the caller's responsibility.
func (s *userServiceImpl) createTokenPair(user *models.User) (*models.TokenDetails, error) {
	now := time.Now()

	access, atExpires, err := s.issueAccessToken(user, now)
	if err != nil {
		return nil, err
	}
	refresh, rtExpires, err := s.issueRefreshToken(user, now)
	if err != nil {
		return nil, err
	}

	return &models.TokenDetails{
		AccessToken:  access,
		RefreshToken: refresh,
		AtExpires:    atExpires,
		RtExpires:    rtExpires,
	}, nil
}

// mapJWTError translates jwt parse errors into domain sentinel errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return models.ErrTokenMalformed
	default:
		return models.ErrTokenInvalid
	}
}

// VerifyAccessToken parses and validates an access token string.
func (s *userServiceImpl) VerifyAccessToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// verifyRefreshToken parses and validates a refresh token string.
func (s *userServiceImpl) verifyRefreshToken(tokenString string) (*models.RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.RefreshTokenSecret), nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims, ok := token.Claims.(*models.RefreshClaims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}
