package handler

import (
	"errors"
	"strings"

	"viewtube-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
	contextUserKey     = "user"
)

// bearerToken extracts the access token from the cookie or, failing that,
// the Authorization header. Cookie takes precedence.
func bearerToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// resolveUser verifies the token and loads the referenced user with the
// credential fields stripped.
func (h *UserHandler) resolveUser(c *gin.Context, tokenString string) (*models.User, error) {
	claims, err := h.userService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := claims.ObjectID()
	if err != nil {
		return nil, models.ErrTokenInvalid
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, err
	}

	user.Password = ""
	user.RefreshToken = ""
	return user, nil
}

// AuthMiddleware gates endpoints that require an authenticated user.
func (h *UserHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			zap.L().Warn("Request without access token", zap.String("path", c.Request.URL.Path))
			handleServiceError(c, models.ErrUnauthorized)
			return
		}

		user, err := h.resolveUser(c, tokenString)
		if err != nil {
			zap.L().Warn("Access token verification failed", zap.Error(err))
			handleServiceError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present but
// never rejects the request. Used where authentication only enriches the
// response (channel profile's isSubscribed flag).
func (h *UserHandler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString != "" {
			if user, err := h.resolveUser(c, tokenString); err == nil {
				c.Set(contextUserKey, user)
			}
		}
		c.Next()
	}
}

// currentUser fetches the authenticated user placed by AuthMiddleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*models.User)
	return user, ok
}
