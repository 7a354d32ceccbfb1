package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/samber/lo"

	"github.com/langchou/wattgazer/internal/models"
)

type demoDevice struct {
	Name string
	Type string
}

// 演示设备
var demoDevices = []demoDevice{
	{"Living Room AC", models.DeviceTypeAC},
	{"Kitchen Refrigerator", models.DeviceTypeRefrigerator},
	{"Master Bedroom Heater", models.DeviceTypeHeater},
	{"Home Office Computer", models.DeviceTypeComputer},
	{"Washing Machine", models.DeviceTypeAppliance},
}

// DemoDevices 为用户生成演示设备（未保存）
func DemoDevices(userID int64) []*models.Device {
	return lo.Map(demoDevices, func(d demoDevice, _ int) *models.Device {
		return &models.Device{UserID: userID, Name: d.Name, Type: d.Type}
	})
}

// Generator 按负载曲线生成带随机波动的读数
type Generator struct {
	profiles ProfileSet
	rnd      *rand.Rand
}

// NewGenerator 创建生成器
func NewGenerator(profiles ProfileSet, seed int64) *Generator {
	return &Generator{
		profiles: profiles,
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

// jitter 在 base 上叠加 ±spread 比例的均匀波动
func (g *Generator) jitter(base, spread float64) float64 {
	return base + (g.rnd.Float64()-0.5)*base*2*spread
}

// History 生成过去 days 天每 stepHours 小时整点的读数，波动 ±10%
// 晚于 now 的时间点跳过
func (g *Generator) History(devices []*models.Device, now time.Time, days, stepHours int) []*models.Reading {
	if stepHours <= 0 {
		stepHours = 4
	}

	var readings []*models.Reading
	for _, d := range devices {
		for day := 0; day < days; day++ {
			date := now.AddDate(0, 0, -day)
			for hour := 0; hour < 24; hour += stepHours {
				ts := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, now.Location())
				if ts.After(now) {
					continue
				}
				readings = append(readings, &models.Reading{
					DeviceID:    d.ID,
					DeviceName:  d.Name,
					EnergyWatts: g.jitter(g.profiles.BaseWatts(d.Type, ts), 0.1),
					Timestamp:   ts,
				})
			}
		}
	}
	return readings
}

// Day 生成 day 当天零点起每 step 一次的读数，波动 ±20%，不低于 0
func (g *Generator) Day(devices []*models.Device, day time.Time, step time.Duration) []*models.Reading {
	if step <= 0 {
		step = 5 * time.Minute
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var readings []*models.Reading
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		for _, d := range devices {
			watts := g.jitter(g.profiles.BaseWatts(d.Type, ts), 0.2)
			readings = append(readings, &models.Reading{
				DeviceID:    d.ID,
				DeviceName:  d.Name,
				EnergyWatts: math.Max(0, watts),
				Timestamp:   ts,
			})
		}
	}
	return readings
}
