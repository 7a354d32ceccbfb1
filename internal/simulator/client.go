package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// Client 通过 HTTP API 上报模拟读数
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient 创建 API 客户端
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type ingestPayload struct {
	DeviceID    int64     `json:"device_id"`
	Timestamp   time.Time `json:"timestamp"`
	EnergyWatts float64   `json:"energy_watts"`
}

// Devices 获取 token 所属用户的设备
func (c *Client) Devices(ctx context.Context) ([]*models.Device, error) {
	var body struct {
		Data []*models.DeviceSummary `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/devices", nil, &body); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	devices := make([]*models.Device, 0, len(body.Data))
	for _, s := range body.Data {
		if s.Device != nil {
			devices = append(devices, s.Device)
		}
	}
	return devices, nil
}

// Send 上报一条读数
func (c *Client) Send(ctx context.Context, r *models.Reading) error {
	payload := ingestPayload{DeviceID: r.DeviceID, Timestamp: r.Timestamp, EnergyWatts: r.EnergyWatts}
	if err := c.do(ctx, http.MethodPost, "/api/telemetry", payload, nil); err != nil {
		return fmt.Errorf("send reading for %s: %w", r.DeviceName, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
