package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/assistant"
	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/models"
)

type stubClassifier struct {
	intent models.QueryIntent
	err    error
	calls  int
	seen   []*models.Device
}

func (s *stubClassifier) Classify(_ context.Context, _ string, devices []*models.Device) (models.QueryIntent, error) {
	s.calls++
	s.seen = devices
	return s.intent, s.err
}

// hangingClassifier 一直阻塞直到 ctx 结束
type hangingClassifier struct{}

func (hangingClassifier) Classify(ctx context.Context, _ string, _ []*models.Device) (models.QueryIntent, error) {
	<-ctx.Done()
	return models.QueryIntent{}, ctx.Err()
}

var chatNow = time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)

type chatFixture struct {
	svc        *ChatService
	classifier *stubClassifier
	devices    *memDevices
	readings   *memReadings
	queries    *memQueries
}

func newChatFixture(t *testing.T, intent models.QueryIntent, classifyErr error) *chatFixture {
	t.Helper()

	readings := &memReadings{}
	devices := newMemDevices(readings)
	queries := &memQueries{}
	classifier := &stubClassifier{intent: intent, err: classifyErr}

	cfg := &config.Config{Timezone: "UTC", ClassifyTimeout: time.Second}
	svc := NewChatService(cfg, zap.NewNop(), classifier, devices, readings, queries)
	svc.now = func() time.Time { return chatNow }

	ctx := context.Background()
	for _, d := range []*models.Device{
		{UserID: 1, Name: "Living Room AC", Type: "AC"},
		{UserID: 1, Name: "Kitchen Refrigerator", Type: "Refrigerator"},
		{UserID: 2, Name: "Other AC", Type: "AC"},
	} {
		require.NoError(t, devices.Create(ctx, d))
	}

	add := func(deviceID int64, ts time.Time, watts float64) {
		require.NoError(t, readings.Create(ctx, &models.Reading{
			DeviceID: deviceID, DeviceName: devices.devices[deviceID-1].Name, Timestamp: ts, EnergyWatts: watts,
		}))
	}
	// 今天
	add(1, chatNow.Add(-2*time.Hour), 1500)
	add(2, chatNow.Add(-time.Hour), 150)
	// 三天前
	add(1, chatNow.AddDate(0, 0, -3), 3000)
	// 其他用户
	add(3, chatNow.Add(-time.Hour), 99999)

	return &chatFixture{svc: svc, classifier: classifier, devices: devices, readings: readings, queries: queries}
}

func TestChatService_AskDeviceUsage(t *testing.T) {
	f := newChatFixture(t, models.QueryIntent{
		Kind:       models.IntentDeviceUsage,
		Timeframe:  models.TimeframeToday,
		DeviceName: "living room",
	}, nil)

	result, err := f.svc.Ask(context.Background(), 1, "How much did my living room AC use today?")
	require.NoError(t, err)

	assert.False(t, result.IntentFallback)
	assert.Equal(t, []int64{1}, f.readings.lastDeviceIDs)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), result.Interval.Start)
	assert.Equal(t, chatNow, result.Interval.End)

	assert.Equal(t, "Living Room AC used 0.03 kWh today.", result.Report.Summary)
	assert.Equal(t, models.KWh(0.025), result.Report.TotalUsageKwh)
	require.Len(t, result.Report.Series, 1)

	// 只传入本用户的设备
	assert.Len(t, f.classifier.seen, 2)

	require.Len(t, f.queries.records, 1)
	assert.Equal(t, "How much did my living room AC use today?", f.queries.records[0].Question)
	assert.Same(t, result.Report, f.queries.records[0].Response)
}

func TestChatService_AskTotalLastWeek(t *testing.T) {
	f := newChatFixture(t, models.QueryIntent{Kind: models.IntentTotalUsage, Timeframe: models.TimeframeLastWeek}, nil)

	result, err := f.svc.Ask(context.Background(), 1, "total this week?")
	require.NoError(t, err)

	assert.Nil(t, f.readings.lastDeviceIDs)
	// (1500 + 150 + 3000) / 60 / 1000
	assert.Equal(t, "Your total energy consumption last week was 0.08 kWh.", result.Report.Summary)
	assert.Len(t, result.Report.Series, 3)
	assert.Equal(t, []string{"Living Room AC", "Kitchen Refrigerator"}, breakdownNames(result.Report.DeviceBreakdownKwh))
}

func TestChatService_ClassifierFailureFallsBack(t *testing.T) {
	f := newChatFixture(t, models.QueryIntent{}, assistant.ErrTimeout)

	result, err := f.svc.Ask(context.Background(), 1, "what's up?")
	require.NoError(t, err)

	assert.True(t, result.IntentFallback)
	assert.Equal(t, models.DefaultIntent(), result.Intent)
	assert.Equal(t, chatNow.AddDate(0, 0, -7), result.Interval.Start)
	assert.Contains(t, result.Report.Summary, "last week")
}

func TestChatService_ClassifierTimeoutFallsBack(t *testing.T) {
	f := newChatFixture(t, models.QueryIntent{}, nil)
	f.svc.classifier = hangingClassifier{}
	f.svc.classifyTimeout = 20 * time.Millisecond

	start := time.Now()
	result, err := f.svc.Ask(context.Background(), 1, "how much today?")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, result.IntentFallback)
	assert.Equal(t, models.DefaultIntent(), result.Intent)
	assert.Contains(t, result.Report.Summary, "last week")
}

func TestChatService_UnmatchedHintUsesAllDevices(t *testing.T) {
	f := newChatFixture(t, models.QueryIntent{
		Kind:       models.IntentDeviceUsage,
		Timeframe:  models.TimeframeToday,
		DeviceName: "garage freezer",
	}, nil)

	result, err := f.svc.Ask(context.Background(), 1, "garage freezer today?")
	require.NoError(t, err)

	assert.True(t, result.Scope.Ambiguous())
	assert.Nil(t, f.readings.lastDeviceIDs)
	assert.Len(t, result.Report.Series, 2)
}

func TestChatService_NoData(t *testing.T) {
	f := newChatFixture(t, models.QueryIntent{Kind: models.IntentTotalUsage, Timeframe: models.TimeframeYesterday}, nil)

	result, err := f.svc.Ask(context.Background(), 1, "yesterday?")
	require.NoError(t, err)

	assert.Equal(t, "No energy usage data found for the specified timeframe.", result.Report.Summary)
	assert.Equal(t, models.KWh(0), result.Report.TotalUsageKwh)
	assert.Empty(t, result.Report.Series)
}

func TestChatService_EmptyQuestion(t *testing.T) {
	f := newChatFixture(t, models.DefaultIntent(), nil)

	_, err := f.svc.Ask(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Zero(t, f.classifier.calls)
}

func TestChatService_StoreFailures(t *testing.T) {
	t.Run("devices", func(t *testing.T) {
		f := newChatFixture(t, models.DefaultIntent(), nil)
		f.devices.err = errStore

		_, err := f.svc.Ask(context.Background(), 1, "total?")
		assert.ErrorIs(t, err, errStore)
	})

	t.Run("readings", func(t *testing.T) {
		f := newChatFixture(t, models.DefaultIntent(), nil)
		f.readings.err = errStore

		_, err := f.svc.Ask(context.Background(), 1, "total?")
		assert.ErrorIs(t, err, errStore)
	})

	t.Run("history write is not fatal", func(t *testing.T) {
		f := newChatFixture(t, models.DefaultIntent(), nil)
		f.queries.err = errStore

		result, err := f.svc.Ask(context.Background(), 1, "total?")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Report.Summary)
	})
}

func TestChatService_History(t *testing.T) {
	f := newChatFixture(t, models.DefaultIntent(), nil)
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		_, err := f.svc.Ask(ctx, 1, q)
		require.NoError(t, err)
	}
	_, err := f.svc.Ask(ctx, 2, "someone else")
	require.NoError(t, err)

	records, total, err := f.svc.History(ctx, 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Question)
	assert.Equal(t, "second", records[1].Question)
}

func breakdownNames(b models.Breakdown) []string {
	names := make([]string, 0, len(b))
	for _, e := range b {
		names = append(names, e.Device)
	}
	return names
}
