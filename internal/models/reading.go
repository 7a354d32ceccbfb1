package models

import "time"

// Reading 功率读数，写入后不再修改
type Reading struct {
	ID          int64     `json:"id" db:"id"`
	DeviceID    int64     `json:"device_id" db:"device_id"`
	DeviceName  string    `json:"device_name,omitempty" db:"device_name"` // 查询时关联 devices 表
	EnergyWatts float64   `json:"energy_watts" db:"energy_watts"`         // 瞬时功率 (W)
	Timestamp   time.Time `json:"timestamp" db:"recorded_at"`
}
