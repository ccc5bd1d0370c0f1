package repository

import (
	"testing"

	"viewtube-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChannelProfilePipeline(t *testing.T) {
	t.Run("Anonymous viewer gets literal false", func(t *testing.T) {
		pipeline := channelProfilePipeline("channelname", nil)
		require.Len(t, pipeline, 5)

		match := pipeline[0][0]
		assert.Equal(t, "$match", match.Key)
		assert.Equal(t, bson.M{"username": "channelname"}, match.Value)

		addFields := pipeline[3][0]
		require.Equal(t, "$addFields", addFields.Key)
		fields := addFields.Value.(bson.M)
		assert.Equal(t, false, fields["isSubscribed"], "Anonymous viewers are never subscribed")
	})

	t.Run("Authenticated viewer gets membership check", func(t *testing.T) {
		viewer := primitive.NewObjectID()
		pipeline := channelProfilePipeline("channelname", &viewer)

		fields := pipeline[3][0].Value.(bson.M)
		cond, ok := fields["isSubscribed"].(bson.M)
		require.True(t, ok, "isSubscribed must be a $cond expression for authenticated viewers")

		inExpr := cond["$cond"].(bson.M)["if"].(bson.M)["$in"].(bson.A)
		assert.Equal(t, viewer, inExpr[0])
		assert.Equal(t, "$subscribers.subscriber", inExpr[1])
	})

	t.Run("Both subscription lookups present", func(t *testing.T) {
		pipeline := channelProfilePipeline("channelname", nil)

		followers := pipeline[1][0].Value.(bson.M)
		assert.Equal(t, "subscriptions", followers["from"])
		assert.Equal(t, "channel", followers["foreignField"])

		following := pipeline[2][0].Value.(bson.M)
		assert.Equal(t, "subscriptions", following["from"])
		assert.Equal(t, "subscriber", following["foreignField"])
	})

	t.Run("Projection keeps only the public fields", func(t *testing.T) {
		pipeline := channelProfilePipeline("channelname", nil)

		project := pipeline[4][0].Value.(bson.M)
		assert.NotContains(t, project, "password")
		assert.NotContains(t, project, "refreshToken")
		assert.NotContains(t, project, "watchHistory")
		assert.Contains(t, project, "subscribersCount")
		assert.Contains(t, project, "channelsSubscribedToCount")
		assert.Contains(t, project, "isSubscribed")
	})
}

func TestWatchHistoryPipeline(t *testing.T) {
	userID := primitive.NewObjectID()
	pipeline := watchHistoryPipeline(userID)
	require.Len(t, pipeline, 3)

	match := pipeline[0][0]
	assert.Equal(t, "$match", match.Key)
	assert.Equal(t, bson.M{"_id": userID}, match.Value)

	lookup := pipeline[1][0].Value.(bson.M)
	assert.Equal(t, "videos", lookup["from"])
	assert.Equal(t, "watchHistory", lookup["localField"])

	// The nested lookup joins owners and collapses them to a single document.
	inner := lookup["pipeline"].(bson.A)
	ownerLookup := inner[0].(bson.M)["$lookup"].(bson.M)
	assert.Equal(t, "users", ownerLookup["from"])
	assert.Equal(t, "owner", ownerLookup["localField"])

	ownerProject := ownerLookup["pipeline"].(bson.A)[0].(bson.M)["$project"].(bson.M)
	assert.Equal(t, bson.M{"fullname": 1, "username": 1, "avatar": 1}, ownerProject,
		"Owner summary must expose only fullname, username and avatar")

	addFields := inner[1].(bson.M)["$addFields"].(bson.M)
	assert.Equal(t, bson.M{"$first": "$owner"}, addFields["owner"])
}

func TestSortByHistoryOrder(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	videos := []models.WatchHistoryVideo{
		{ID: c, Title: "third"},
		{ID: a, Title: "first"},
		{ID: b, Title: "second"},
	}

	t.Run("Restores stored order", func(t *testing.T) {
		sorted := sortByHistoryOrder(videos, []primitive.ObjectID{a, b, c})
		require.Len(t, sorted, 3)
		assert.Equal(t, "first", sorted[0].Title)
		assert.Equal(t, "second", sorted[1].Title)
		assert.Equal(t, "third", sorted[2].Title)
	})

	t.Run("Skips ids of deleted videos", func(t *testing.T) {
		deleted := primitive.NewObjectID()
		sorted := sortByHistoryOrder(videos, []primitive.ObjectID{a, deleted, b, c})
		require.Len(t, sorted, 3)
		assert.Equal(t, "first", sorted[0].Title)
	})

	t.Run("Empty input yields empty slice", func(t *testing.T) {
		sorted := sortByHistoryOrder(nil, []primitive.ObjectID{a})
		assert.NotNil(t, sorted)
		assert.Empty(t, sorted)
	})
}

func TestMapDuplicateKeyError_UnrelatedError(t *testing.T) {
	assert.NoError(t, mapDuplicateKeyError(assert.AnError))
}
