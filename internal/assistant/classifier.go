package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/models"
)

// Classifier 将自然语言问题分类为查询意图
type Classifier interface {
	Classify(ctx context.Context, question string, devices []*models.Device) (models.QueryIntent, error)
}

// NewClassifier 配置了 API Key 时使用 OpenAI 兼容接口，否则使用本地关键词分类
func NewClassifier(cfg *config.Config, logger *zap.Logger) Classifier {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, using keyword classifier")
		return NewKeywordClassifier()
	}

	logger.Info("Using OpenAI classifier",
		zap.String("base_url", cfg.OpenAIBaseURL),
		zap.String("model", cfg.OpenAIModel))

	return NewOpenAIClient(OpenAIConfig{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		Timeout:     cfg.ClassifyTimeout,
		MaxRetries:  cfg.ClassifyMaxRetries,
	})
}

// BuildSystemPrompt 构建意图识别的系统提示词，附带用户的设备目录
func BuildSystemPrompt(devices []*models.Device) string {
	var b strings.Builder
	b.WriteString("You are a smart home energy assistant. Analyze the user's question about their energy consumption and return a JSON response with:\n")
	fmt.Fprintf(&b, "1. \"intent\": The type of query (e.g., %q, %q, %q, %q)\n",
		models.IntentDeviceUsage, models.IntentComparison, models.IntentTotalUsage, models.IntentHighestConsumer)
	fmt.Fprintf(&b, "2. \"timeframe\": The time period mentioned (e.g., %q, %q, %q, %q)\n",
		models.TimeframeToday, models.TimeframeYesterday, models.TimeframeLastWeek, models.TimeframeLastMonth)
	b.WriteString("3. \"deviceName\": The specific device mentioned (if any)\n")
	b.WriteString("4. \"deviceType\": The type of device mentioned (if any)\n\n")
	b.WriteString("User has these devices: ")
	b.WriteString(DeviceCatalog(devices))
	b.WriteString("\n\nReturn only valid JSON.")
	return b.String()
}

// DeviceCatalog 设备目录摘要，形如 "Living Room AC (AC), Kitchen Refrigerator (Refrigerator)"
func DeviceCatalog(devices []*models.Device) string {
	parts := make([]string, len(devices))
	for i, d := range devices {
		parts[i] = fmt.Sprintf("%s (%s)", d.Name, d.Type)
	}
	return strings.Join(parts, ", ")
}
