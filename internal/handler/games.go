package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"steamtracker/internal/service"
)

type GamesHandler struct {
	Query  *service.CatalogQueryService
	Logger *zap.Logger
}

func (h *GamesHandler) Register(r *gin.Engine) {
	group := r.Group("/api/games")
	group.GET("", h.listGames)
	group.GET("/:app_id", h.getGame)
	group.GET("/:app_id/price-history", h.priceHistory)
}

// @Summary List games
// @Tags games
// @Param search query string false "match name or genre"
// @Param discountMin query int false "minimum discount percent"
// @Param priceMin query number false "minimum current price (major units)"
// @Param priceMax query number false "maximum current price (major units)"
// @Param page query int false "1-based page"
// @Param pageSize query int false "page size"
// @Success 200 {object} apiResponse
// @Router /api/games [get]
func (h *GamesHandler) listGames(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Query.GetCatalogPage(c.Request.Context(), service.CatalogQuery{
		Search:        strQueryPtr(c, "search"),
		DiscountMin:   intQuery(c, "discountMin", 0),
		PriceMinCents: priceQueryCents(c, "priceMin", 0),
		PriceMaxCents: priceQueryCents(c, "priceMax", 0),
		Page:          intQuery(c, "page", 1),
		PageSize:      intQuery(c, "pageSize", 0),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list games failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result.Items, pageMeta(result.Page))
}

// @Summary Get one game with grade and trend
// @Tags games
// @Param app_id path int true "steam app id"
// @Success 200 {object} apiResponse
// @Router /api/games/{app_id} [get]
func (h *GamesHandler) getGame(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	appID, ok := appIDParam(c)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid app id", nil)
		return
	}
	record, err := h.Query.GetGameDetail(c.Request.Context(), appID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("get game failed", zap.Int64("app_id", appID), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if record == nil {
		Error(c, http.StatusNotFound, "game not found", nil)
		return
	}
	Ok(c, record, nil)
}

// @Summary Get the chronological price history of a game
// @Tags games
// @Param app_id path int true "steam app id"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "max points"
// @Success 200 {object} apiResponse
// @Router /api/games/{app_id}/price-history [get]
func (h *GamesHandler) priceHistory(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	appID, ok := appIDParam(c)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid app id", nil)
		return
	}
	points, err := h.Query.GetPriceHistory(c.Request.Context(), appID, timeQueryPtr(c, "since"), intQuery(c, "limit", 0))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("price history failed", zap.Int64("app_id", appID), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, points, nil)
}
