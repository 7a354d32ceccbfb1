package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/langchou/wattgazer/internal/models"
)

// rawIntent 模型返回的 JSON 结构
type rawIntent struct {
	Intent     string `json:"intent"`
	Timeframe  string `json:"timeframe"`
	DeviceName string `json:"deviceName"`
	DeviceType string `json:"deviceType"`
}

// ParseIntent 从模型输出中解析意图，容忍 markdown 代码块和前后的说明文字
func ParseIntent(text string) (models.QueryIntent, error) {
	block := extractJSONObject(stripCodeFences(text))
	if block == "" {
		return models.QueryIntent{}, fmt.Errorf("%w: no JSON object found", ErrInvalidOutput)
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return models.QueryIntent{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	return models.QueryIntent{
		Kind:       models.IntentKind(raw.Intent),
		Timeframe:  models.Timeframe(raw.Timeframe),
		DeviceName: raw.DeviceName,
		DeviceType: raw.DeviceType,
	}, nil
}

// stripCodeFences 去掉 ``` 围栏行
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractJSONObject 找到第一个括号平衡的 {...}，跳过字符串内的括号
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
