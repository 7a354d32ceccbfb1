package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/wattgazer/internal/models"
)

func TestClient_DevicesAndSend(t *testing.T) {
	var received []ingestPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/devices":
			_, _ = w.Write([]byte(`{"data":[{"id":3,"name":"Living Room AC","type":"AC","state":"idle"}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/telemetry":
			var p ingestPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			received = append(received, p)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "tok")
	ctx := context.Background()

	devices, err := client.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, int64(3), devices[0].ID)
	assert.Equal(t, "AC", devices[0].Type)

	ts := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, client.Send(ctx, &models.Reading{DeviceID: 3, Timestamp: ts, EnergyWatts: 1500}))
	require.Len(t, received, 1)
	assert.Equal(t, int64(3), received[0].DeviceID)
	assert.True(t, ts.Equal(received[0].Timestamp))
	assert.Equal(t, 1500.0, received[0].EnergyWatts)

	_, err = NewClient(srv.URL, "wrong").Devices(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
