package models

import (
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessClaims carries the identity and a subset of profile fields
// encoded into the short-lived access token.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the user identity.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// ObjectID parses the embedded user id back into a Mongo ObjectID.
func (c *AccessClaims) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

// ObjectID parses the embedded user id back into a Mongo ObjectID.
func (c *RefreshClaims) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}
