package usage

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/langchou/wattgazer/internal/models"
)

// NoDataSummary 区间内没有读数时的固定摘要
const NoDataSummary = "No energy usage data found for the specified timeframe."

// Options 聚合选项
type Options struct {
	// DisambiguateNames 按设备 ID 累加，同名设备以 "名称 #ID" 区分。
	// 默认关闭：明细按设备名分组，同名设备合并。
	DisambiguateNames bool
}

// Aggregate 将已按 (用户, 设备范围, 时间区间) 过滤、按时间升序的读数归约为用电报告。
// 纯函数，不修改输入，可并发调用。
func Aggregate(readings []*models.Reading, intent models.QueryIntent, opts Options) *models.UsageReport {
	intent = intent.Normalize()

	if len(readings) == 0 {
		return &models.UsageReport{
			Summary:            NoDataSummary,
			DeviceBreakdownKwh: models.Breakdown{},
			Series:             []models.SeriesPoint{},
		}
	}

	label := deviceLabeler(readings, opts)

	// 每个读数视为持续一分钟的功率，累加值按瓦分钟处理
	var totalWattMinutes float64
	index := make(map[string]int)
	var order []string
	var sums []float64

	for _, r := range readings {
		totalWattMinutes += r.EnergyWatts

		key := label(r)
		i, ok := index[key]
		if !ok {
			i = len(order)
			index[key] = i
			order = append(order, key)
			sums = append(sums, 0)
		}
		sums[i] += r.EnergyWatts
	}

	breakdown := make(models.Breakdown, len(order))
	for i, name := range order {
		breakdown[i] = models.DeviceUsage{Device: name, KWh: wattMinutesToKWh(sums[i])}
	}
	total := wattMinutesToKWh(totalWattMinutes)

	return &models.UsageReport{
		Summary:            Summarize(intent, total, breakdown),
		TotalUsageKwh:      total,
		DeviceBreakdownKwh: breakdown,
		Series: lo.Map(readings, func(r *models.Reading, _ int) models.SeriesPoint {
			return models.SeriesPoint{
				Timestamp:   r.Timestamp,
				Device:      label(r),
				EnergyWatts: r.EnergyWatts,
			}
		}),
	}
}

// wattMinutesToKWh 瓦分钟 -> 千瓦时。假设每分钟一个读数，并非按时间加权的积分。
func wattMinutesToKWh(wattMinutes float64) models.KWh {
	return models.KWh(wattMinutes / 60 / 1000)
}

// deviceLabeler 返回读数在明细中的分组键
func deviceLabeler(readings []*models.Reading, opts Options) func(*models.Reading) string {
	if !opts.DisambiguateNames {
		return func(r *models.Reading) string { return r.DeviceName }
	}

	idsByName := make(map[string]map[int64]struct{})
	for _, r := range readings {
		if idsByName[r.DeviceName] == nil {
			idsByName[r.DeviceName] = make(map[int64]struct{})
		}
		idsByName[r.DeviceName][r.DeviceID] = struct{}{}
	}

	return func(r *models.Reading) string {
		if len(idsByName[r.DeviceName]) > 1 {
			return fmt.Sprintf("%s #%d", r.DeviceName, r.DeviceID)
		}
		return r.DeviceName
	}
}
