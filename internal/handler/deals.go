package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"steamtracker/internal/service"
)

type DealsHandler struct {
	Query  *service.CatalogQueryService
	Logger *zap.Logger
}

func (h *DealsHandler) Register(r *gin.Engine) {
	r.GET("/api/deals", h.listDeals)
}

// @Summary List all discounted games, deepest cut first
// @Tags deals
// @Success 200 {object} apiResponse
// @Router /api/deals [get]
func (h *DealsHandler) listDeals(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Query.GetDeals(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list deals failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
