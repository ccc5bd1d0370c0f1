package models

import "errors"

// Application-wide standard errors
var (
	// User & Authentication Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMismatch  = errors.New("refresh token is expired or already used")

	// Channel & Subscription Errors
	ErrChannelNotFound   = errors.New("channel does not exist")
	ErrSelfSubscription  = errors.New("cannot subscribe to your own channel")
	ErrSubscriptionState = errors.New("subscription state could not be determined")

	// General Request/Server Errors
	ErrInvalidInput   = errors.New("invalid input data")
	ErrUploadFailed   = errors.New("file upload failed")
	ErrInternalServer = errors.New("internal server error")
)
