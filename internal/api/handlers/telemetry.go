package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/langchou/wattgazer/internal/service"
)

type ingestRequest struct {
	DeviceID    int64      `json:"device_id" binding:"required"`
	Timestamp   *time.Time `json:"timestamp"`
	EnergyWatts *float64   `json:"energy_watts" binding:"required"`
}

// IngestReading 上报读数
// POST /api/telemetry
func (h *Handler) IngestReading(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id and energy_watts are required"})
		return
	}

	in := service.IngestInput{
		DeviceID:    req.DeviceID,
		EnergyWatts: *req.EnergyWatts,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	reading, err := h.telemetryService.Ingest(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		h.respondError(c, err, "Failed to store reading")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": reading})
}

// ListReadings 获取读数
// GET /api/telemetry?device_id=&days=7
func (h *Handler) ListReadings(c *gin.Context) {
	var deviceID int64
	if raw := c.Query("device_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
			return
		}
		deviceID = id
	}

	readings, err := h.telemetryService.Readings(c.Request.Context(), currentUserID(c), deviceID, queryDays(c))
	if err != nil {
		h.respondError(c, err, "Failed to list readings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": readings})
}
