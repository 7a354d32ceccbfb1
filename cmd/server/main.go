package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/wattgazer/internal/api/handlers"
	"github.com/langchou/wattgazer/internal/assistant"
	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/service"
	"github.com/langchou/wattgazer/internal/simulator"
	"github.com/langchou/wattgazer/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Wattgazer", zap.String("port", cfg.ServerPort), zap.String("timezone", cfg.Timezone))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	readingRepo := repository.NewReadingRepository(db)
	queryRepo := repository.NewQueryRepository(db)

	// 模拟器负载曲线（注册时生成演示数据）
	profiles, err := simulator.LoadProfiles(cfg.SimulatorProfiles)
	if err != nil {
		logger.Fatal("Failed to load simulator profiles", zap.Error(err))
	}

	// 意图识别
	classifier := assistant.NewClassifier(cfg, logger)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建服务
	authService := service.NewAuthService(cfg, logger, userRepo, sessionRepo, deviceRepo, readingRepo, profiles)
	telemetryService := service.NewTelemetryService(cfg, logger, deviceRepo, readingRepo, wsHub)
	deviceService := service.NewDeviceService(logger, deviceRepo, telemetryService)
	chatService := service.NewChatService(cfg, logger, classifier, deviceRepo, readingRepo, queryRepo)

	// 新连接推送设备列表和当前状态
	wsHub.SetInitDataProvider(func(userID int64) *ws.InitData {
		initCtx, initCancel := context.WithTimeout(ctx, 5*time.Second)
		defer initCancel()

		devices, err := deviceRepo.ListByUserID(initCtx, userID)
		if err != nil {
			logger.Error("Failed to load devices for websocket init", zap.Int64("user_id", userID), zap.Error(err))
			return nil
		}
		return &ws.InitData{
			Devices: devices,
			States:  telemetryService.DeviceStates(devices),
		}
	})

	// 启动离线检测
	telemetryService.Start(ctx)

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		authService,
		deviceService,
		telemetryService,
		chatService,
		wsHub,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止服务
	telemetryService.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
