package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"steamtracker/internal/repository"
	"steamtracker/internal/service"
)

// SyncHandler exposes manual triggers for the collectors plus cursor
// visibility. The cron runner drives the same code paths on schedule.
type SyncHandler struct {
	PriceSync *service.PriceSyncService
	Toplist   *service.ToplistSyncService
	Store     repository.Store
	Logger    *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("/prices", h.runPriceSync)
	group.POST("/toplist", h.runToplistSync)
	group.GET("/state", h.listSyncState)
}

// @Summary Run one price sync batch
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync/prices [post]
func (h *SyncHandler) runPriceSync(c *gin.Context) {
	if h.PriceSync == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.PriceSync.Run(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("price sync failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary Refresh the tracked roster from the top-sellers list
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync/toplist [post]
func (h *SyncHandler) runToplistSync(c *gin.Context) {
	if h.Toplist == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Toplist.Run(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("toplist sync failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary List sync cursors and last run outcomes
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync/state [get]
func (h *SyncHandler) listSyncState(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	states, err := h.Store.ListSyncStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, states, nil)
}
