package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in the "users" collection.
// Password and RefreshToken are never serialized to JSON.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	Fullname     string               `bson:"fullname" json:"fullname"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	CoverImage   string               `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Password     string               `bson:"password" json:"-"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory,omitempty" json:"watchHistory,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ChannelProfile is the aggregation result for GET /c/:username.
// Only a fixed whitelist of profile fields is projected outward.
type ChannelProfile struct {
	ID                        primitive.ObjectID `bson:"_id" json:"_id"`
	Username                  string             `bson:"username" json:"username"`
	Email                     string             `bson:"email" json:"email"`
	Fullname                  string             `bson:"fullname" json:"fullname"`
	Avatar                    string             `bson:"avatar" json:"avatar"`
	CoverImage                string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	SubscribersCount          int64              `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64              `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed" json:"isSubscribed"`
}
