package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/wattgazer/internal/models"
)

func testDevices() []*models.Device {
	devices := DemoDevices(7)
	for i, d := range devices {
		d.ID = int64(i + 1)
	}
	return devices
}

func TestDemoDevices(t *testing.T) {
	devices := DemoDevices(42)
	require.Len(t, devices, 5)
	assert.Equal(t, "Living Room AC", devices[0].Name)
	assert.Equal(t, models.DeviceTypeAppliance, devices[4].Type)
	for _, d := range devices {
		assert.Equal(t, int64(42), d.UserID)
	}
}

func TestGenerator_History(t *testing.T) {
	gen := NewGenerator(DefaultProfiles(), 1)
	now := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)

	readings := gen.History(testDevices(), now, 7, 4)

	// 5 台设备 × 7 天 × 6 个时间点
	require.Len(t, readings, 5*7*6)
	for _, r := range readings {
		assert.False(t, r.Timestamp.After(now))
		assert.Zero(t, r.Timestamp.Minute())
		assert.Zero(t, r.Timestamp.Hour()%4)

		base := DefaultProfiles().BaseWatts(typeOf(r.DeviceID), r.Timestamp)
		assert.InDelta(t, base, r.EnergyWatts, base*0.1+1e-9)
	}
}

func TestGenerator_HistorySkipsFuture(t *testing.T) {
	gen := NewGenerator(DefaultProfiles(), 1)
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	readings := gen.History(testDevices()[:1], now, 1, 4)

	// 00:00, 04:00, 08:00
	assert.Len(t, readings, 3)
}

func TestGenerator_Day(t *testing.T) {
	gen := NewGenerator(DefaultProfiles(), 2)
	day := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	readings := gen.Day(testDevices(), day, 5*time.Minute)

	require.Len(t, readings, 5*24*12)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), readings[0].Timestamp)
	for _, r := range readings {
		assert.GreaterOrEqual(t, r.EnergyWatts, 0.0)
		base := DefaultProfiles().BaseWatts(typeOf(r.DeviceID), r.Timestamp)
		assert.InDelta(t, base, r.EnergyWatts, base*0.2+1e-9)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := NewGenerator(DefaultProfiles(), 99).History(testDevices(), now, 2, 4)
	b := NewGenerator(DefaultProfiles(), 99).History(testDevices(), now, 2, 4)
	assert.Equal(t, a, b)
}

func typeOf(deviceID int64) string {
	return testDevices()[deviceID-1].Type
}
