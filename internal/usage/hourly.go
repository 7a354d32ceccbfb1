package usage

import (
	"math"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// HourlyPoint 图表使用的小时平均功率
type HourlyPoint struct {
	Hour    time.Time `json:"hour"`
	Label   string    `json:"time"` // 例如 "Mar 14 09:00"
	Watts   int64     `json:"watts"`
	Samples int       `json:"samples"`
}

// HourlyAverages 按 loc 时区的整点分桶，计算每小时平均功率。桶按首次出现的顺序输出。
func HourlyAverages(readings []*models.Reading, loc *time.Location) []HourlyPoint {
	if loc == nil {
		loc = time.Local
	}

	type bucket struct {
		hour  time.Time
		total float64
		count int
	}

	index := make(map[int64]int)
	var buckets []*bucket
	for _, r := range readings {
		t := r.Timestamp.In(loc)
		hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
		key := hour.Unix()

		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, &bucket{hour: hour})
		}
		buckets[i].total += r.EnergyWatts
		buckets[i].count++
	}

	points := make([]HourlyPoint, len(buckets))
	for i, b := range buckets {
		points[i] = HourlyPoint{
			Hour:    b.hour,
			Label:   b.hour.Format("Jan 02 15:00"),
			Watts:   int64(math.Floor(b.total/float64(b.count) + 0.5)),
			Samples: b.count,
		}
	}
	return points
}
