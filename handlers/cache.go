package handlers

import (
	"net/http"

	"home-energy/cache"
	"home-energy/services"
	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	insights  *usecases.InsightUseCase
	cache     *cache.TextCache
	scheduler *services.HourlyScheduler
}

func NewCacheHandler(insights *usecases.InsightUseCase, textCache *cache.TextCache, scheduler *services.HourlyScheduler) *CacheHandler {
	return &CacheHandler{
		insights:  insights,
		cache:     textCache,
		scheduler: scheduler,
	}
}

// GetCacheStats GET /api/ai/cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  h.insights.CacheStats(),
	})
}

// ClearCache DELETE /api/ai/cache
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if h.cache != nil {
		h.cache.ClearCache()
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// GetSchedulerStats GET /api/energy/scheduler
func (h *CacheHandler) GetSchedulerStats(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"status": "disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  h.scheduler.GetStats(),
	})
}
