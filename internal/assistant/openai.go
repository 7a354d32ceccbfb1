package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration // 单次分类的总超时（含重试）
	MaxRetries  int
}

// OpenAIClient 通过 chat completions 接口识别意图
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIClient 创建 OpenAI 兼容客户端
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OpenAIClient{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// statusError 非 2xx 响应
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status=%d body=%s", e.code, e.body)
}

// Classify 实现 Classifier
func (c *OpenAIClient) Classify(ctx context.Context, question string, devices []*models.Device) (models.QueryIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: BuildSystemPrompt(devices)},
			{Role: "user", Content: question},
		},
		Temperature: c.cfg.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		text, err := c.complete(ctx, body)
		if err == nil {
			return ParseIntent(text)
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	if ctx.Err() != nil {
		return models.QueryIntent{}, ErrTimeout
	}

	var se *statusError
	if errors.As(lastErr, &se) {
		switch se.code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return models.QueryIntent{}, ErrUnauthorized
		case http.StatusTooManyRequests:
			return models.QueryIntent{}, ErrRateLimited
		}
	}
	if errors.Is(lastErr, ErrInvalidOutput) {
		return models.QueryIntent{}, lastErr
	}

	var netErr net.Error
	if errors.As(lastErr, &netErr) {
		return models.QueryIntent{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return models.QueryIntent{}, fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

// complete 发送一次请求并返回第一个候选的文本
func (c *OpenAIClient) complete(ctx context.Context, body chatRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrInvalidOutput, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrInvalidOutput)
	}

	return out.Choices[0].Message.Content, nil
}

// retryable 只重试网络错误和 5xx
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return !errors.Is(err, ErrInvalidOutput)
}
