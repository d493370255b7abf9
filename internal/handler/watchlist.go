package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"steamtracker/internal/service"
)

type WatchlistHandler struct {
	Watchlist *service.WatchlistService
	Auth      *service.AuthService
	Logger    *zap.Logger
}

func (h *WatchlistHandler) Register(r *gin.Engine) {
	group := r.Group("/api/watchlist")
	group.Use(RequireAuth(h.Auth))
	group.GET("", h.list)
	group.POST("/:app_id", h.add)
	group.DELETE("/:app_id", h.remove)
}

// @Summary List the authenticated user's watchlist
// @Tags watchlist
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/watchlist [get]
func (h *WatchlistHandler) list(c *gin.Context) {
	if h.Watchlist == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	user := currentUser(c)
	if user == nil {
		Error(c, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	Ok(c, h.Watchlist.List(c.Request.Context(), user.ID), nil)
}

// @Summary Add a game to the watchlist
// @Tags watchlist
// @Security BearerAuth
// @Param app_id path int true "steam app id"
// @Success 200 {object} apiResponse
// @Router /api/watchlist/{app_id} [post]
func (h *WatchlistHandler) add(c *gin.Context) {
	if h.Watchlist == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	user := currentUser(c)
	if user == nil {
		Error(c, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	appID, ok := appIDParam(c)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid app id", nil)
		return
	}
	if err := h.Watchlist.Add(c.Request.Context(), user.ID, appID); err != nil {
		if errors.Is(err, service.ErrUnknownGame) {
			Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.Warn("watchlist add failed", zap.Int64("app_id", appID), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, nil, nil)
}

// @Summary Remove a game from the watchlist
// @Tags watchlist
// @Security BearerAuth
// @Param app_id path int true "steam app id"
// @Success 200 {object} apiResponse
// @Router /api/watchlist/{app_id} [delete]
func (h *WatchlistHandler) remove(c *gin.Context) {
	if h.Watchlist == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	user := currentUser(c)
	if user == nil {
		Error(c, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	appID, ok := appIDParam(c)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid app id", nil)
		return
	}
	removed, err := h.Watchlist.Remove(c.Request.Context(), user.ID, appID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if !removed {
		Error(c, http.StatusNotFound, "not on watchlist", nil)
		return
	}
	Ok(c, nil, nil)
}
