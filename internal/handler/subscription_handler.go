package handler

import (
	"net/http"

	"viewtube-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *UserHandler) toggleSubscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	channelID, err := primitive.ObjectIDFromHex(c.Param("channelId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid channel id")
		return
	}

	subscribed, err := h.userService.ToggleSubscription(c.Request.Context(), user.ID, channelID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	respond(c, http.StatusOK, subscriptionToggleResponse{Subscribed: subscribed}, message)
}
