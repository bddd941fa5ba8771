package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/pkg/httputil"
)

type AuthService interface {
	Signup(ctx context.Context, username, password, email string) (*domain.AuthResult, error)
	Login(ctx context.Context, username, password string) (*domain.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (domain.Resolution, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type AuthHandler struct {
	Service AuthService
	Log     logging.Logger
}

func NewAuthHandler(svc AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{Service: svc, Log: log}
}

type authResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be between 1 and 50 characters"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	res, err := h.Service.Signup(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
			return
		}
		if errors.Is(err, domain.ErrPasswordTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at most 72 bytes"})
			return
		}
		h.Log.Error(c.Request.Context(), "signup failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	h.Log.Info(c.Request.Context(), "user registered",
		"userId", res.UserID,
		"ip", httputil.ClientIP(c.Request),
		"device", httputil.DeviceInfo(c.Request))
	c.JSON(http.StatusOK, authResponse{Token: res.Token, UserID: res.UserID})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	res, err := h.Service.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.Log.Info(c.Request.Context(), "login rejected",
				"username", req.Username,
				"ip", httputil.ClientIP(c.Request),
				"device", httputil.DeviceInfo(c.Request))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.Log.Error(c.Request.Context(), "login failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: res.Token, UserID: res.UserID})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := httputil.BearerToken(c.Request)
	if errors.Is(err, httputil.ErrNoToken) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No token provided"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid token"})
		return
	}

	if err := h.Service.Logout(c.Request.Context(), token); err != nil {
		if !errors.Is(err, domain.ErrInvalidToken) {
			h.Log.Error(c.Request.Context(), "logout failed", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Validate always answers 200; the body says whether the token is valid.
func (h *AuthHandler) Validate(c *gin.Context) {
	token, err := httputil.BearerToken(c.Request)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	res, err := h.Service.Validate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "userId": res.UserID})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.Service.ListUsers(c.Request.Context())
	if err != nil {
		h.Log.Error(c.Request.Context(), "list users failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, users)
}
