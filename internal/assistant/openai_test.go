package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/wattgazer/internal/models"
)

func testOpenAIConfig(baseURL string) OpenAIConfig {
	return OpenAIConfig{
		BaseURL:     baseURL,
		APIKey:      "sk-test",
		Model:       "gpt-3.5-turbo",
		Temperature: 0.3,
		Timeout:     2 * time.Second,
		MaxRetries:  1,
	}
}

func completion(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(data)
}

func TestOpenAIClient_Classify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 0.3, req.Temperature)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Living Room AC (AC)")
		assert.Equal(t, "How much did the AC use today?", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completion("```json\n{\"intent\":\"device_usage\",\"timeframe\":\"today\",\"deviceName\":\"AC\"}\n```"))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testOpenAIConfig(srv.URL + "/"))
	got, err := client.Classify(context.Background(), "How much did the AC use today?",
		[]*models.Device{{ID: 1, Name: "Living Room AC", Type: "AC"}})

	require.NoError(t, err)
	assert.Equal(t, models.IntentDeviceUsage, got.Kind)
	assert.Equal(t, models.TimeframeToday, got.Timeframe)
	assert.Equal(t, "AC", got.DeviceName)
}

func TestOpenAIClient_Classify_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, completion(`{"intent":"total_usage","timeframe":"last_week"}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testOpenAIConfig(srv.URL))
	got, err := client.Classify(context.Background(), "total?", nil)

	require.NoError(t, err)
	assert.Equal(t, models.IntentTotalUsage, got.Kind)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_Classify_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadRequest, ErrRetryExhausted},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewOpenAIClient(testOpenAIConfig(srv.URL))
			_, err := client.Classify(context.Background(), "q", nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
		})
	}
}

func TestOpenAIClient_Classify_InvalidOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completion("Sorry, I can't help with that."))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testOpenAIConfig(srv.URL))
	_, err := client.Classify(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestOpenAIClient_Classify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := testOpenAIConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewOpenAIClient(cfg)

	_, err := client.Classify(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOpenAIClient_Classify_Unavailable(t *testing.T) {
	cfg := testOpenAIConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0
	client := NewOpenAIClient(cfg)

	_, err := client.Classify(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
