package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"steamtracker/internal/models"
	"steamtracker/internal/service"
)

const userContextKey = "auth.user"

type AuthHandler struct {
	Auth   *service.AuthService
	Logger *zap.Logger
}

func (h *AuthHandler) Register(r *gin.Engine) {
	group := r.Group("/api/auth")
	group.POST("/register", h.register)
	group.POST("/login", h.login)
	group.POST("/logout", h.logout)
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Register a new user
// @Tags auth
// @Param body body credentialsRequest true "credentials"
// @Success 200 {object} apiResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	if h.Auth == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "username and password required", nil)
		return
	}
	user, err := h.Auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, user, nil)
}

// @Summary Log in and receive a bearer token
// @Tags auth
// @Param body body credentialsRequest true "credentials"
// @Success 200 {object} apiResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	if h.Auth == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "username and password required", nil)
		return
	}
	token, user, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Error(c, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.Warn("login failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"token": token, "user": user}, nil)
}

// @Summary Revoke the presented bearer token
// @Tags auth
// @Success 200 {object} apiResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	if h.Auth == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	token := bearerToken(c)
	if token == "" {
		Error(c, http.StatusUnauthorized, "missing bearer token", nil)
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), token); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, nil, nil)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth resolves the bearer token and stashes the user on the
// request context. Store failures map to 502, bad tokens to 401.
func RequireAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			Error(c, http.StatusInternalServerError, "service unavailable", nil)
			c.Abort()
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				Error(c, http.StatusUnauthorized, err.Error(), nil)
			} else {
				Error(c, http.StatusBadGateway, err.Error(), nil)
			}
			c.Abort()
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}
