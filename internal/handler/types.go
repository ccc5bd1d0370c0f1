package handler

import "viewtube-server/internal/models"

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type updateAccountRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type subscriptionToggleResponse struct {
	Subscribed bool `json:"subscribed"`
}
