package models

import "strings"

// IntentKind 问题类型
type IntentKind string

const (
	IntentDeviceUsage     IntentKind = "device_usage"
	IntentComparison      IntentKind = "comparison"
	IntentTotalUsage      IntentKind = "total_usage"
	IntentHighestConsumer IntentKind = "highest_consumer"
)

// Timeframe 问题涉及的时间范围
type Timeframe string

const (
	TimeframeToday     Timeframe = "today"
	TimeframeYesterday Timeframe = "yesterday"
	TimeframeLastWeek  Timeframe = "last_week"
	TimeframeLastMonth Timeframe = "last_month"
)

// Known 是否为可识别的时间范围
func (t Timeframe) Known() bool {
	switch t {
	case TimeframeToday, TimeframeYesterday, TimeframeLastWeek, TimeframeLastMonth:
		return true
	}
	return false
}

// Label 用于摘要文本的可读形式（下划线替换为空格）
func (t Timeframe) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// QueryIntent 自然语言问题的分类结果，来自外部分类器，不可信
type QueryIntent struct {
	Kind       IntentKind `json:"intent"`
	Timeframe  Timeframe  `json:"timeframe"`
	DeviceName string     `json:"device_name,omitempty"`
	DeviceType string     `json:"device_type,omitempty"`
}

// DefaultIntent 分类失败或缺失字段时使用的默认意图
func DefaultIntent() QueryIntent {
	return QueryIntent{
		Kind:      IntentTotalUsage,
		Timeframe: TimeframeLastWeek,
	}
}

// Normalize 规范化意图：缺失的类型视为 total_usage，缺失或无法识别的时间范围视为 last_week
func (q QueryIntent) Normalize() QueryIntent {
	out := QueryIntent{
		Kind:       IntentKind(strings.ToLower(strings.TrimSpace(string(q.Kind)))),
		Timeframe:  Timeframe(strings.ToLower(strings.TrimSpace(string(q.Timeframe)))),
		DeviceName: strings.TrimSpace(q.DeviceName),
		DeviceType: strings.TrimSpace(q.DeviceType),
	}
	if out.Kind == "" {
		out.Kind = IntentTotalUsage
	}
	if !out.Timeframe.Known() {
		out.Timeframe = TimeframeLastWeek
	}
	return out
}
