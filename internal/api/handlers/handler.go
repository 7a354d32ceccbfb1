package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/service"
	"github.com/langchou/wattgazer/internal/usage"
	"github.com/langchou/wattgazer/pkg/ws"
)

// AuthService 认证
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Authenticate(ctx context.Context, token string) (int64, error)
	Logout(ctx context.Context, token string) error
}

// DeviceService 设备管理
type DeviceService interface {
	List(ctx context.Context, userID int64) ([]*models.DeviceSummary, error)
	Create(ctx context.Context, userID int64, name, deviceType string) (*models.Device, error)
}

// TelemetryService 读数
type TelemetryService interface {
	Ingest(ctx context.Context, userID int64, in service.IngestInput) (*models.Reading, error)
	Readings(ctx context.Context, userID, deviceID int64, days int) ([]*models.Reading, error)
	Hourly(ctx context.Context, userID, deviceID int64, days int) ([]usage.HourlyPoint, error)
}

// ChatService 用量问答
type ChatService interface {
	Ask(ctx context.Context, userID int64, question string) (*service.ChatResult, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]*models.QueryRecord, int64, error)
}

// Handler HTTP 处理器
type Handler struct {
	logger           *zap.Logger
	authService      AuthService
	deviceService    DeviceService
	telemetryService TelemetryService
	chatService      ChatService
	wsHub            *ws.Hub
	upgrader         websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	authService AuthService,
	deviceService DeviceService,
	telemetryService TelemetryService,
	chatService ChatService,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:           logger,
		authService:      authService,
		deviceService:    deviceService,
		telemetryService: telemetryService,
		chatService:      chatService,
		wsHub:            wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// respondError 将服务层错误转换为 HTTP 响应
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrEmptyQuestion),
		errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrInvalidDevice),
		errors.Is(err, service.ErrInvalidReading):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// queryDays 解析 days 参数，默认 7 天，最多 90 天
func queryDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		return 7
	}
	if days > 90 {
		return 90
	}
	return days
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := currentUserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn, userID)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"time":       time.Now().UTC(),
		"ws_clients": h.wsHub.ClientCount(),
	})
}
