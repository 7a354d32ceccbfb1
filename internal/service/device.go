package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/models"
)

// StateSource 设备活跃状态来源
type StateSource interface {
	DeviceState(deviceID int64) string
}

// DeviceService 设备管理
type DeviceService struct {
	logger  *zap.Logger
	devices DeviceStore
	states  StateSource
}

// NewDeviceService 创建设备服务
func NewDeviceService(logger *zap.Logger, devices DeviceStore, states StateSource) *DeviceService {
	return &DeviceService{
		logger:  logger,
		devices: devices,
		states:  states,
	}
}

// List 获取用户的设备，附带最新读数和活跃状态
func (s *DeviceService) List(ctx context.Context, userID int64) ([]*models.DeviceSummary, error) {
	devices, err := s.devices.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	latest, err := s.devices.LatestReadings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest readings: %w", err)
	}

	summaries := make([]*models.DeviceSummary, 0, len(devices))
	for _, d := range devices {
		summaries = append(summaries, &models.DeviceSummary{
			Device:        d,
			LatestReading: latest[d.ID],
			State:         s.states.DeviceState(d.ID),
		})
	}
	return summaries, nil
}

// Create 为用户创建设备
func (s *DeviceService) Create(ctx context.Context, userID int64, name, deviceType string) (*models.Device, error) {
	name = strings.TrimSpace(name)
	deviceType = strings.TrimSpace(deviceType)
	if name == "" || deviceType == "" {
		return nil, ErrInvalidDevice
	}

	device := &models.Device{UserID: userID, Name: name, Type: deviceType}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	s.logger.Info("Device created",
		zap.Int64("user_id", userID),
		zap.Int64("device_id", device.ID),
		zap.String("type", device.Type))
	return device, nil
}
