package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/state"
	"github.com/langchou/wattgazer/internal/usage"
	"github.com/langchou/wattgazer/pkg/ws"
)

// IngestInput 上报的读数
type IngestInput struct {
	DeviceID    int64
	Timestamp   time.Time // 零值表示使用接收时间
	EnergyWatts float64
}

// DeviceStateChange 推送给客户端的状态变化
type DeviceStateChange struct {
	DeviceID int64  `json:"device_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// TelemetryService 读数写入、查询和设备活跃状态
type TelemetryService struct {
	logger       *zap.Logger
	devices      DeviceStore
	readings     ReadingStore
	notifier     Notifier
	stateManager *state.Manager

	activeWatts   float64
	offlineAfter  time.Duration
	sweepInterval time.Duration
	loc           *time.Location
	now           func() time.Time

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewTelemetryService 创建读数服务
func NewTelemetryService(
	cfg *config.Config,
	logger *zap.Logger,
	devices DeviceStore,
	readings ReadingStore,
	notifier Notifier,
) *TelemetryService {
	svc := &TelemetryService{
		logger:        logger,
		devices:       devices,
		readings:      readings,
		notifier:      notifier,
		activeWatts:   cfg.DeviceActiveWatts,
		offlineAfter:  cfg.DeviceOfflineAfter,
		sweepInterval: cfg.DeviceSweepInterval,
		loc:           cfg.Location(),
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}

	// 创建状态管理器
	svc.stateManager = state.NewManager(svc.onStateChange)

	return svc
}

// onStateChange 状态变化时推送给设备所属用户
func (s *TelemetryService) onStateChange(deviceID, userID int64, from, to string) {
	s.logger.Debug("Device state changed",
		zap.Int64("device_id", deviceID),
		zap.String("from", from),
		zap.String("to", to))

	if s.notifier != nil {
		s.notifier.SendToUser(userID, ws.MsgTypeDeviceState, DeviceStateChange{
			DeviceID: deviceID,
			From:     from,
			To:       to,
		})
	}
}

// Ingest 写入一条读数
func (s *TelemetryService) Ingest(ctx context.Context, userID int64, in IngestInput) (*models.Reading, error) {
	if math.IsNaN(in.EnergyWatts) || math.IsInf(in.EnergyWatts, 0) {
		return nil, ErrInvalidReading
	}

	device, err := s.devices.GetByIDForUser(ctx, in.DeviceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("get device: %w", err)
	}

	received := s.now()
	ts := in.Timestamp
	if ts.IsZero() {
		ts = received
	}

	reading := &models.Reading{
		DeviceID:    device.ID,
		DeviceName:  device.Name,
		EnergyWatts: in.EnergyWatts,
		Timestamp:   ts,
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("create reading: %w", err)
	}

	// 活跃状态按接收时间判断，补录的历史读数同样算作在线
	machine := s.stateManager.GetOrCreate(device.ID, userID)
	if err := machine.Report(received, in.EnergyWatts, s.activeWatts); err != nil {
		s.logger.Warn("Failed to update device state", zap.Int64("device_id", device.ID), zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.SendToUser(userID, ws.MsgTypeReading, reading)
	}

	return reading, nil
}

// Readings 获取最近 days 天的读数，deviceID 为 0 时返回全部设备
func (s *TelemetryService) Readings(ctx context.Context, userID, deviceID int64, days int) ([]*models.Reading, error) {
	var deviceIDs []int64
	if deviceID != 0 {
		if _, err := s.ownedDevice(ctx, userID, deviceID); err != nil {
			return nil, err
		}
		deviceIDs = []int64{deviceID}
	}

	since := s.now().AddDate(0, 0, -days)
	readings, err := s.readings.ListSince(ctx, userID, deviceIDs, since)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

// Hourly 获取设备最近 days 天的小时平均功率
func (s *TelemetryService) Hourly(ctx context.Context, userID, deviceID int64, days int) ([]usage.HourlyPoint, error) {
	readings, err := s.Readings(ctx, userID, deviceID, days)
	if err != nil {
		return nil, err
	}
	return usage.HourlyAverages(readings, s.loc), nil
}

func (s *TelemetryService) ownedDevice(ctx context.Context, userID, deviceID int64) (*models.Device, error) {
	device, err := s.devices.GetByIDForUser(ctx, deviceID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return device, nil
}

// DeviceState 获取设备当前活跃状态
func (s *TelemetryService) DeviceState(deviceID int64) string {
	return s.stateManager.StateOf(deviceID)
}

// DeviceStates 获取一组设备的活跃状态
func (s *TelemetryService) DeviceStates(devices []*models.Device) map[int64]string {
	states := make(map[int64]string, len(devices))
	for _, d := range devices {
		states[d.ID] = s.stateManager.StateOf(d.ID)
	}
	return states
}

// Start 启动离线检测
func (s *TelemetryService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.sweepLoop(ctx)

	s.logger.Info("Telemetry service started",
		zap.Duration("offline_after", s.offlineAfter),
		zap.Duration("sweep_interval", s.sweepInterval))
}

// Stop 停止离线检测
func (s *TelemetryService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Telemetry service stopped")
}

func (s *TelemetryService) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep 将长时间没有上报的设备置为 offline
func (s *TelemetryService) Sweep() []int64 {
	offline := s.stateManager.Sweep(s.now(), s.offlineAfter)
	if len(offline) > 0 {
		s.logger.Info("Devices went offline", zap.Int64s("device_ids", offline))
	}
	return offline
}
