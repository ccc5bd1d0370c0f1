package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video represents a video document in the "videos" collection.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// VideoOwner is the denormalized owner summary attached to each
// watch-history entry. Exactly one per video, not a list.
type VideoOwner struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Fullname string             `bson:"fullname" json:"fullname"`
	Avatar   string             `bson:"avatar" json:"avatar"`
}

// WatchHistoryVideo is a video joined with its owner summary.
type WatchHistoryVideo struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	Owner       VideoOwner         `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
