package httpHandler

import (
	"net/http"
	"time"

	"home-energy/usecases"

	"github.com/gin-gonic/gin"
)

type EnergyHandler struct {
	useCase *usecases.EnergyUseCase
}

func NewEnergyHandler(useCase *usecases.EnergyUseCase) *EnergyHandler {
	return &EnergyHandler{useCase: useCase}
}

// Integrate handles POST /api/energy/integrate?hour=RFC3339. Without hour the
// previous completed hour is integrated. Re-running an hour only reports
// duplicates.
func (h *EnergyHandler) Integrate(c *gin.Context) {
	var (
		report *usecases.IntegrationReport
		err    error
	)
	if raw := c.Query("hour"); raw != "" {
		hour, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hour must be an RFC3339 timestamp"})
			return
		}
		report, err = h.useCase.RunHourlyIntegration(c.Request.Context(), hour)
	} else {
		report, err = h.useCase.RunPreviousHour(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
