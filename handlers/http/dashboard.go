package httpHandler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"home-energy/reports"
	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	useCase *usecases.DashboardUseCase
}

func NewDashboardHandler(useCase *usecases.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{useCase: useCase}
}

// GetStats handles GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.useCase.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// GetEnergyTrend handles GET /api/dashboard/energy-trend
func (h *DashboardHandler) GetEnergyTrend(c *gin.Context) {
	trend, err := h.useCase.EnergyTrend(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trend, "count": len(trend)})
}

// GetRoomPowerUsage handles GET /api/dashboard/room-consumption
func (h *DashboardHandler) GetRoomPowerUsage(c *gin.Context) {
	rooms, err := h.useCase.RoomPowerUsage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms, "count": len(rooms)})
}

// GetHourlyConsumption handles GET /api/consumption/hourly?date=YYYY-MM-DD
func (h *DashboardHandler) GetHourlyConsumption(c *gin.Context) {
	report, ok := h.hourlyReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetRoomConsumption handles GET /api/consumption/room/:id?hours=N
func (h *DashboardHandler) GetRoomConsumption(c *gin.Context) {
	hours := 0
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = n
	}

	report, err := h.useCase.RoomConsumption(c.Request.Context(), c.Param("id"), hours)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// ExportConsumption handles GET /api/consumption/export?format=xlsx|pdf&date=
func (h *DashboardHandler) ExportConsumption(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", reports.FormatXLSX))
	contentType, ok := reports.ContentType(format)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or pdf"})
		return
	}

	report, ok := h.hourlyReport(c)
	if !ok {
		return
	}
	body, err := reports.Build(format, report)
	if err != nil {
		respondError(c, err)
		return
	}

	name := "consumption-" + report.PeriodStart.Format("2006-01-02") + "." + format
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, body)
}

func (h *DashboardHandler) hourlyReport(c *gin.Context) (*usecases.HourlyConsumption, bool) {
	var day *usecases.Day
	if raw := c.Query("date"); raw != "" {
		d, err := usecases.ParseDay(raw)
		if err != nil {
			respondError(c, err)
			return nil, false
		}
		day = &d
	}

	report, err := h.useCase.HourlyConsumption(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return report, true
}
