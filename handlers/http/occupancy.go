package httpHandler

import (
	"net/http"
	"time"

	"home-energy/occupancy"
	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

type OccupancyHandler struct {
	useCase   *usecases.OccupancyUseCase
	simulator *occupancy.Simulator
}

func NewOccupancyHandler(useCase *usecases.OccupancyUseCase, simulator *occupancy.Simulator) *OccupancyHandler {
	return &OccupancyHandler{useCase: useCase, simulator: simulator}
}

type OccupancyUpdateRequest struct {
	RoomID     string     `json:"room_id" binding:"required"`
	IsOccupied *bool      `json:"is_occupied" binding:"required"`
	Timestamp  *time.Time `json:"timestamp"`
}

// UpdateOccupancy handles POST /api/occupancy/update
func (h *OccupancyHandler) UpdateOccupancy(c *gin.Context) {
	var req OccupancyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}
	result, err := h.useCase.ReportOccupancy(c.Request.Context(), req.RoomID, *req.IsOccupied, at)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Occupancy updated",
		"data":    result,
	})
}

// SimulateOccupancy handles POST /api/simulate-occupancy. Rooms with a camera
// are left alone.
func (h *OccupancyHandler) SimulateOccupancy(c *gin.Context) {
	samples, err := h.simulator.Run(c.Request.Context(), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Simulated occupancy updated",
		"data":    samples,
		"count":   len(samples),
	})
}
