package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"steamtracker/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

// priceQueryCents reads a major-unit decimal query value ("9.99") and
// returns minor units. Unparseable input falls back to the default.
func priceQueryCents(c *gin.Context, key string, def int64) int64 {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return def
	}
	return d.Shift(2).IntPart()
}

func timeQueryPtr(c *gin.Context, key string) *time.Time {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			return &ts
		}
	}
	return nil
}

func appIDParam(c *gin.Context) (int64, bool) {
	appID, err := strconv.ParseInt(strings.TrimSpace(c.Param("app_id")), 10, 64)
	if err != nil || appID <= 0 {
		return 0, false
	}
	return appID, true
}

func pageMeta(p service.Page) map[string]any {
	return map[string]any{
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total":       p.Total,
		"total_pages": p.TotalPages,
		"has_next":    p.HasNext,
		"has_prev":    p.HasPrev,
	}
}
