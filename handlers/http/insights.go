package httpHandler

import (
	"net/http"
	"strconv"

	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

const defaultRatePerKWh = 0.15

type InsightHandler struct {
	useCase *usecases.InsightUseCase
}

func NewInsightHandler(useCase *usecases.InsightUseCase) *InsightHandler {
	return &InsightHandler{useCase: useCase}
}

// GetPredictions handles GET /api/ai/predictions?days_ahead=N
func (h *InsightHandler) GetPredictions(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days_ahead", "7"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days_ahead must be an integer"})
		return
	}

	p, err := h.useCase.Predictions(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// GetAnomalies handles GET /api/ai/anomalies
func (h *InsightHandler) GetAnomalies(c *gin.Context) {
	report, err := h.useCase.Anomalies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetCostEstimation handles GET /api/ai/cost-estimation?rate_per_kwh=R
func (h *InsightHandler) GetCostEstimation(c *gin.Context) {
	rate := defaultRatePerKWh
	if raw := c.Query("rate_per_kwh"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_per_kwh must be a number"})
			return
		}
		rate = v
	}

	est, err := h.useCase.CostEstimation(c.Request.Context(), rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": est})
}

// GetRecommendations handles GET /api/ai/recommendations
func (h *InsightHandler) GetRecommendations(c *gin.Context) {
	recs, err := h.useCase.Recommendations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}
