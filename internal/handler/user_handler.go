package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"viewtube-server/internal/config"
	"viewtube-server/internal/models"
	"viewtube-server/internal/service"
	"viewtube-server/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserHandler handles the /api/v1/users HTTP surface.
type UserHandler struct {
	userService service.UserService
	cfg         *config.Config
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		cfg:         cfg,
	}
}

// RegisterRoutes binds the route table.
func (h *UserHandler) RegisterRoutes(router *gin.Engine) {
	users := router.Group("/api/v1/users")
	{
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.POST("/refresh-token", h.refresh)

		users.POST("/logout", h.AuthMiddleware(), h.logout)
		users.POST("/change-password", h.AuthMiddleware(), h.changePassword)
		users.GET("/current-user", h.AuthMiddleware(), h.getCurrentUser)
		users.PATCH("/update-account", h.AuthMiddleware(), h.updateAccount)
		users.PATCH("/avatar", h.AuthMiddleware(), h.updateAvatar)
		users.PATCH("/cover-image", h.AuthMiddleware(), h.updateCoverImage)
		users.GET("/history", h.AuthMiddleware(), h.getWatchHistory)

		users.GET("/c/:username", h.OptionalAuthMiddleware(), h.getChannelProfile)
	}

	subs := router.Group("/api/v1/subscriptions")
	subs.Use(h.AuthMiddleware())
	{
		subs.POST("/c/:channelId", h.toggleSubscription)
	}
}

// formUpload opens a multipart file field as a storage.Upload. The returned
// closer must be called after the upload completes.
func formUpload(header *multipart.FileHeader) (*storage.Upload, func(), error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	up := &storage.Upload{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	return up, func() { _ = file.Close() }, nil
}

func (h *UserHandler) setAuthCookies(c *gin.Context, td *models.TokenDetails) {
	c.SetCookie(accessTokenCookie, td.AccessToken, int(h.cfg.AccessTokenTTL.Seconds()), "/", "", true, true)
	c.SetCookie(refreshTokenCookie, td.RefreshToken, int(h.cfg.RefreshTokenTTL.Seconds()), "/", "", true, true)
}

func (h *UserHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", true, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", true, true)
}

func (h *UserHandler) register(c *gin.Context) {
	input := service.RegisterInput{
		Fullname: c.PostForm("fullname"),
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	avatarHeader, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Avatar file is required")
		return
	}
	avatar, closeAvatar, err := formUpload(avatarHeader)
	if err != nil {
		zap.L().Error("Failed to open avatar upload", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Avatar file could not be read")
		return
	}
	defer closeAvatar()
	input.Avatar = avatar

	if coverHeader, err := c.FormFile("coverImage"); err == nil {
		cover, closeCover, err := formUpload(coverHeader)
		if err != nil {
			zap.L().Error("Failed to open cover image upload", zap.Error(err))
			respondError(c, http.StatusBadRequest, "Cover image could not be read")
			return
		}
		defer closeCover()
		input.CoverImage = cover
	}

	user, err := h.userService.Register(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()
	respond(c, http.StatusCreated, user, "User registered successfully")
}

func (h *UserHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, td, err := h.userService.Login(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	loginsTotal.Inc()
	h.setAuthCookies(c, td)
	user.Password = ""
	user.RefreshToken = ""
	respond(c, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  td.AccessToken,
		RefreshToken: td.RefreshToken,
	}, "User logged in successfully")
}

func (h *UserHandler) logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	if err := h.userService.Logout(c.Request.Context(), user.ID); err != nil {
		handleServiceError(c, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, nil, "User logged out successfully")
}

func (h *UserHandler) refresh(c *gin.Context) {
	// Cookie first, then request body.
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}

	td, err := h.userService.Refresh(c.Request.Context(), token)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	refreshesTotal.Inc()
	h.setAuthCookies(c, td)
	respond(c, http.StatusOK, td, "Access token refreshed")
}

func (h *UserHandler) changePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Password changed successfully")
}

func (h *UserHandler) getCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (h *UserHandler) updateAccount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.userService.UpdateAccount(c.Request.Context(), user.ID, req.Fullname, req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, updated, "Account details updated successfully")
}

func (h *UserHandler) updateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.userService.UpdateAvatar, "Avatar updated successfully")
}

func (h *UserHandler) updateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.userService.UpdateCoverImage, "Cover image updated successfully")
}

// updateImage is the shared flow for the avatar and cover-image endpoints.
func (h *UserHandler) updateImage(c *gin.Context, field string, update func(ctx context.Context, userID primitive.ObjectID, file storage.Upload) (*models.User, error), message string) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	header, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, field+" file is required")
		return
	}
	up, closeFile, err := formUpload(header)
	if err != nil {
		zap.L().Error("Failed to open uploaded file", zap.Error(err), zap.String("field", field))
		respondError(c, http.StatusBadRequest, field+" file could not be read")
		return
	}
	defer closeFile()

	updated, err := update(c.Request.Context(), user.ID, *up)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	uploadsTotal.Inc()
	respond(c, http.StatusOK, updated, message)
}

func (h *UserHandler) getChannelProfile(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		respondError(c, http.StatusBadRequest, "Username is required")
		return
	}

	var viewer *primitive.ObjectID
	if user, ok := currentUser(c); ok {
		viewer = &user.ID
	}

	profile, err := h.userService.GetChannelProfile(c.Request.Context(), username, viewer)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, profile, "Channel profile fetched successfully")
}

func (h *UserHandler) getWatchHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	history, err := h.userService.GetWatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			handleServiceError(c, models.ErrUnauthorized)
			return
		}
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, history, "Watch history fetched successfully")
}
