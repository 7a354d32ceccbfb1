package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type createDeviceRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListDevices 获取设备列表
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.deviceService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err, "Failed to list devices")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": devices})
}

// CreateDevice 创建设备
func (h *Handler) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	device, err := h.deviceService.Create(c.Request.Context(), currentUserID(c), req.Name, req.Type)
	if err != nil {
		h.respondError(c, err, "Failed to create device")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": device})
}

// GetDeviceHourly 获取设备小时平均功率
// GET /api/devices/:id/hourly?days=7
func (h *Handler) GetDeviceHourly(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return
	}

	points, err := h.telemetryService.Hourly(c.Request.Context(), currentUserID(c), id, queryDays(c))
	if err != nil {
		h.respondError(c, err, "Failed to load hourly usage")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": points})
}
