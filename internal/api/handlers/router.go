package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 认证
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.RequireAuth(), h.Logout)
	}

	authed := api.Group("", h.RequireAuth())
	{
		// 设备
		authed.GET("/devices", h.ListDevices)
		authed.POST("/devices", h.CreateDevice)
		authed.GET("/devices/:id/hourly", h.GetDeviceHourly)

		// 读数
		authed.POST("/telemetry", h.IngestReading)
		authed.GET("/telemetry", h.ListReadings)

		// 问答
		authed.POST("/chat/query", h.AskQuestion)
		authed.GET("/chat/history", h.ListHistory)
	}

	// WebSocket
	r.GET("/ws", h.RequireAuth(), h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}
