package handler

import (
	"errors"
	"net/http"

	"viewtube-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError maps domain sentinel errors onto HTTP status codes and
// the response envelope. Unknown errors become opaque 500s.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrUserAlreadyExists), errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		message = "User with email or username already exists"
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = "User does not exist"
	case errors.Is(err, models.ErrChannelNotFound):
		statusCode = http.StatusNotFound
		message = "Channel does not exist"
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		message = "Invalid user credentials"
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Unauthorized request"
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		message = "Token has expired"
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		message = "Token is invalid or malformed"
	case errors.Is(err, models.ErrTokenMismatch):
		statusCode = http.StatusUnauthorized
		message = "Refresh token is expired or already used"
	case errors.Is(err, models.ErrSelfSubscription):
		statusCode = http.StatusBadRequest
		message = "Cannot subscribe to your own channel"
	case errors.Is(err, models.ErrUploadFailed):
		statusCode = http.StatusInternalServerError
		message = "File upload failed"
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal error occurred"
	}

	respondError(c, statusCode, message)
}
