package usage

import (
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// Interval 闭区间 [Start, End]
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains 时间是否落在区间内（含两端）
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Resolve 将时间范围解析为相对 now 的闭区间。
// 无法识别的时间范围按 last_week 处理，不返回错误。
// yesterday 的上界是前一天的 23:59:59.999，而不是 now。
func Resolve(tf models.Timeframe, now time.Time) Interval {
	switch tf {
	case models.TimeframeToday:
		return Interval{Start: startOfDay(now), End: now}
	case models.TimeframeYesterday:
		day := now.AddDate(0, 0, -1)
		return Interval{Start: startOfDay(day), End: endOfDay(day)}
	case models.TimeframeLastMonth:
		return Interval{Start: monthsBefore(now, 1), End: now}
	default:
		return Interval{Start: now.AddDate(0, 0, -7), End: now}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// monthsBefore 回退 n 个自然月，日期超出目标月份天数时取该月最后一天（3 月 31 日 -> 2 月 28/29 日）
func monthsBefore(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
