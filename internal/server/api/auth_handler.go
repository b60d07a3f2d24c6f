package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postbridge/postbridge/internal/common"
	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/server/accounts"
)

// AuthHandler serves registration, login, and refresh. All three routes are
// public; login and refresh are how callers obtain tokens in the first place.
type AuthHandler struct {
	Accounts *accounts.Service
	Log      logging.Logger
}

func (h *AuthHandler) Register(r *gin.Engine) {
	group := r.Group("/api/auth")
	group.POST("/register", h.register)
	group.POST("/login", h.login)
	group.POST("/refresh", h.refresh)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	acc, err := h.Accounts.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, accounts.ErrEmptyCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case err != nil:
		h.Log.Error(c.Request.Context(), "register failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusOK, gin.H{"id": acc.ID, "username": acc.Username})
	}
}

func (h *AuthHandler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	pair, err := h.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, common.ErrorInvalidLoginPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login or password"})
	case err != nil:
		h.Log.Error(c.Request.Context(), "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	pair, err := h.Accounts.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
	case errors.Is(err, common.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired"})
	case err != nil:
		h.Log.Error(c.Request.Context(), "refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	}
}
