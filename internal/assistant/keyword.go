package assistant

import (
	"context"
	"strings"

	"github.com/langchou/wattgazer/internal/models"
)

// KeywordClassifier 基于关键词的本地分类器，没有配置 LLM 时使用，结果是确定的
type KeywordClassifier struct{}

// NewKeywordClassifier 创建关键词分类器
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var timeframeKeywords = []struct {
	keywords  []string
	timeframe models.Timeframe
}{
	{[]string{"yesterday"}, models.TimeframeYesterday},
	{[]string{"today", "so far"}, models.TimeframeToday},
	{[]string{"last month", "past month", "this month", "30 days"}, models.TimeframeLastMonth},
	{[]string{"last week", "past week", "this week", "7 days"}, models.TimeframeLastWeek},
}

var intentKeywords = []struct {
	keywords []string
	kind     models.IntentKind
}{
	{[]string{"most", "highest", "biggest", "largest", "top"}, models.IntentHighestConsumer},
	{[]string{"compare", "comparison", "breakdown", "each device", "per device", " vs "}, models.IntentComparison},
	{[]string{"total", "overall", "altogether", "in all"}, models.IntentTotalUsage},
}

// Classify 实现 Classifier
func (k *KeywordClassifier) Classify(_ context.Context, question string, devices []*models.Device) (models.QueryIntent, error) {
	q := " " + strings.ToLower(question) + " "
	intent := models.DefaultIntent()

	for _, tk := range timeframeKeywords {
		if containsAny(q, tk.keywords) {
			intent.Timeframe = tk.timeframe
			break
		}
	}

	kindFound := false
	for _, ik := range intentKeywords {
		if containsAny(q, ik.keywords) {
			intent.Kind = ik.kind
			kindFound = true
			break
		}
	}

	// 设备名优先，其次设备类型
	for _, d := range devices {
		if d.Name != "" && strings.Contains(q, strings.ToLower(d.Name)) {
			intent.DeviceName = d.Name
			break
		}
	}
	if intent.DeviceName == "" {
		for _, d := range devices {
			if d.Type != "" && containsWord(q, strings.ToLower(d.Type)) {
				intent.DeviceType = d.Type
				break
			}
		}
	}

	if !kindFound && (intent.DeviceName != "" || intent.DeviceType != "") {
		intent.Kind = models.IntentDeviceUsage
	}

	return intent, nil
}

// containsAny 单词关键词按单词边界匹配（"top" 不命中 "laptop"），短语按子串匹配
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(s, kw) {
				return true
			}
			continue
		}
		if containsWord(s, kw) {
			return true
		}
	}
	return false
}

// containsWord 按单词边界匹配，避免 "ac" 命中 "machine"
func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
