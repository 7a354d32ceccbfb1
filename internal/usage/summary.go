package usage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/langchou/wattgazer/internal/models"
)

// Summarize 按意图类型生成摘要文本
func Summarize(intent models.QueryIntent, total models.KWh, breakdown models.Breakdown) string {
	if len(breakdown) == 0 {
		return NoDataSummary
	}
	tf := intent.Timeframe.Label()

	switch intent.Kind {
	case models.IntentDeviceUsage:
		top := Rank(breakdown)[0]
		return fmt.Sprintf("%s used %s kWh %s.", top.Device, top.KWh, tf)

	case models.IntentHighestConsumer:
		top := Rank(breakdown)[0]
		return fmt.Sprintf("Your highest consuming device %s was %s with %s kWh.", tf, top.Device, top.KWh)

	case models.IntentTotalUsage:
		return fmt.Sprintf("Your total energy consumption %s was %s kWh.", tf, total)

	case models.IntentComparison:
		parts := make([]string, len(breakdown))
		for i, u := range breakdown {
			parts[i] = fmt.Sprintf("%s: %s kWh", u.Device, u.KWh)
		}
		return fmt.Sprintf("Energy usage breakdown %s: %s", tf, strings.Join(parts, ", "))

	default:
		return fmt.Sprintf("Total energy usage %s: %s kWh", tf, total)
	}
}

// Rank 按展示值（两位小数）降序排列，相同值保持首次出现的顺序
func Rank(breakdown models.Breakdown) models.Breakdown {
	ranked := make(models.Breakdown, len(breakdown))
	copy(ranked, breakdown)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].KWh.Round() > ranked[j].KWh.Round()
	})
	return ranked
}
