package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/models"
	"github.com/ajharbinger/refibot/internal/services"
)

// AuthHandler handles account and token operations
type AuthHandler struct {
	authService   services.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new auth handler with service injection
func NewAuthHandler(authService services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SignUp creates an account and signs it in
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	auth.SetAuthCookies(c, response.Token, response.CSRFToken, response.ExpiresAt, h.secureCookies)
	c.JSON(http.StatusCreated, response)
}

// Login authenticates a user
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	auth.SetAuthCookies(c, response.Token, response.CSRFToken, response.ExpiresAt, h.secureCookies)
	c.JSON(http.StatusOK, response)
}

// RefreshToken issues a new access token from a refresh token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	auth.SetAuthCookies(c, response.Token, response.CSRFToken, response.ExpiresAt, h.secureCookies)
	c.JSON(http.StatusOK, response)
}

// Logout ends the session and clears the auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		respondError(c, errors.Unauthorized("Authentication required", nil))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), sess); err != nil {
		respondError(c, err)
		return
	}

	auth.ClearAuthCookies(c, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the signed-in account
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		respondError(c, errors.Unauthorized("Authentication required", nil))
		return
	}

	c.JSON(http.StatusOK, models.Account{
		UserID:      sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
	})
}
