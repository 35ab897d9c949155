package httpHandler

import (
	"net/http"
	"strconv"

	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	useCase *usecases.AdminUseCase
}

func NewAdminHandler(useCase *usecases.AdminUseCase) *AdminHandler {
	return &AdminHandler{useCase: useCase}
}

// GenerateSampleData handles POST /api/admin/generate-sample-data?days=N
func (h *AdminHandler) GenerateSampleData(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
		return
	}

	res, err := h.useCase.GenerateSampleData(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Sample data generated",
		"data":    res,
	})
}

// ResetHourlyRecords handles DELETE /api/admin/hourly-records
func (h *AdminHandler) ResetHourlyRecords(c *gin.Context) {
	n, err := h.useCase.ResetHourlyRecords(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Hourly records deleted",
		"count":   n,
	})
}
