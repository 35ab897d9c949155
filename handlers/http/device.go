package httpHandler

import (
	"net/http"
	"time"

	"home-energy/entities"
	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	useCase *usecases.DeviceUseCase
}

func NewDeviceHandler(useCase *usecases.DeviceUseCase) *DeviceHandler {
	return &DeviceHandler{
		useCase: useCase,
	}
}

type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required"`
	HasCamera bool   `json:"has_camera"`
}

type CreateDeviceRequest struct {
	RoomID      string  `json:"room_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	PowerRating float64 `json:"power_rating" binding:"required"`
	DeviceType  string  `json:"device_type" binding:"required"`
}

type SetStateRequest struct {
	IsOn      *bool      `json:"is_on" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

// CreateRoom handles POST /api/rooms
func (h *DeviceHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	room := entities.Room{Name: req.Name, HasCamera: req.HasCamera}
	if err := h.useCase.CreateRoom(c.Request.Context(), &room); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Room created successfully",
		"data":    room,
	})
}

// GetAllRooms handles GET /api/rooms
func (h *DeviceHandler) GetAllRooms(c *gin.Context) {
	rooms, err := h.useCase.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rooms,
		"count": len(rooms),
	})
}

// DeleteRoom handles DELETE /api/rooms/:id and removes the room's devices too.
func (h *DeviceHandler) DeleteRoom(c *gin.Context) {
	if err := h.useCase.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Room deleted successfully",
	})
}

// CreateDevice handles POST /api/devices
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	device := entities.Device{
		RoomID:      req.RoomID,
		Name:        req.Name,
		PowerRating: req.PowerRating,
		DeviceType:  req.DeviceType,
	}
	if err := h.useCase.CreateDevice(c.Request.Context(), &device); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Device created successfully",
		"data":    device,
	})
}

// GetDevice handles GET /api/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.useCase.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": device,
	})
}

// GetAllDevices handles GET /api/devices, optionally filtered by ?room_id=
func (h *DeviceHandler) GetAllDevices(c *gin.Context) {
	devices, err := h.useCase.ListDevices(c.Request.Context(), c.Query("room_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  devices,
		"count": len(devices),
	})
}

// SetDeviceState handles PUT /api/devices/:id/state
func (h *DeviceHandler) SetDeviceState(c *gin.Context) {
	var req SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}
	change, err := h.useCase.SetDeviceState(c.Request.Context(), c.Param("id"), *req.IsOn, at)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": change,
	})
}

// DeleteDevice handles DELETE /api/devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if err := h.useCase.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Device deleted successfully",
	})
}
