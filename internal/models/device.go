package models

import "time"

// 常见设备类型，类型集合是开放的
const (
	DeviceTypeAC           = "AC"
	DeviceTypeRefrigerator = "Refrigerator"
	DeviceTypeHeater       = "Heater"
	DeviceTypeComputer     = "Computer"
	DeviceTypeAppliance    = "Appliance"
)

// Device 用电设备
type Device struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DeviceSummary 设备列表项：最新读数和活跃状态
type DeviceSummary struct {
	*Device
	LatestReading *Reading `json:"latest_reading,omitempty"`
	State         string   `json:"state"`
}
