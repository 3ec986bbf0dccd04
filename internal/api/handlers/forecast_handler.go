package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/service"
)

const maxHorizon = 60

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type forecastRequest struct {
	ItemID  int64         `json:"item_id"`
	History domain.Series `json:"history"`
	Horizon int           `json:"horizon"`
}

type summarizeRequest struct {
	ItemName   string        `json:"item_name"`
	Historical domain.Series `json:"historical"`
	Forecast   domain.Series `json:"forecast"`
}

// GetItemForecast serves the forecast view of one stored item.
func (h *ForecastHandler) GetItemForecast(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	horizon, ok := parseHorizon(c.Query("horizon"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon"})
		return
	}

	view, err := h.service.View(c.Request.Context(), id, horizon)
	if err != nil {
		respondError(c, err, "failed to build forecast")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Forecast continues a caller supplied history.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var req forecastRequest
	if err := domain.DecodeStrict(c.Request.Body, &req); err != nil {
		respondError(c, asBadRequest(err), "invalid forecast request")
		return
	}
	if req.Horizon < 0 || req.Horizon > maxHorizon {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon"})
		return
	}

	result, err := h.service.ForecastFor(req.ItemID, req.History, req.Horizon)
	if err != nil {
		respondError(c, err, "failed to forecast")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Summarize always answers 200; an unreachable summarizer shows up as
// available=false in the body.
func (h *ForecastHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := domain.DecodeStrict(c.Request.Body, &req); err != nil {
		respondError(c, asBadRequest(err), "invalid summarize request")
		return
	}

	analysis := h.service.Summarize(c.Request.Context(), req.ItemName, req.Historical, req.Forecast)
	c.JSON(http.StatusOK, analysis)
}

// parseHorizon accepts an empty value as "use the default".
func parseHorizon(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil || horizon <= 0 || horizon > maxHorizon {
		return 0, false
	}
	return horizon, true
}
