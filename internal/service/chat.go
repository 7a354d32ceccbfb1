package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/assistant"
	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/usage"
)

// ChatResult 一次问答的结果
type ChatResult struct {
	Report         *models.UsageReport `json:"report"`
	Intent         models.QueryIntent  `json:"intent"`
	Interval       usage.Interval      `json:"interval"`
	Scope          usage.Scope         `json:"-"`
	IntentFallback bool                `json:"intent_fallback"` // 意图识别失败，使用了默认意图
}

// ChatService 自然语言用量问答
type ChatService struct {
	logger     *zap.Logger
	classifier assistant.Classifier
	devices    DeviceStore
	readings   ReadingStore
	queries    QueryStore

	classifyTimeout time.Duration
	loc             *time.Location
	opts            usage.Options
	now             func() time.Time
}

// NewChatService 创建问答服务
func NewChatService(
	cfg *config.Config,
	logger *zap.Logger,
	classifier assistant.Classifier,
	devices DeviceStore,
	readings ReadingStore,
	queries QueryStore,
) *ChatService {
	return &ChatService{
		logger:          logger,
		classifier:      classifier,
		devices:         devices,
		readings:        readings,
		queries:         queries,
		classifyTimeout: cfg.ClassifyTimeout,
		loc:             cfg.Location(),
		opts:            usage.Options{DisambiguateNames: cfg.DisambiguateDeviceNames},
		now:             time.Now,
	}
}

// Ask 回答用户关于用电量的问题
func (s *ChatService) Ask(ctx context.Context, userID int64, question string) (*ChatResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	devices, err := s.devices.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	intent, fallback := s.classify(ctx, userID, question, devices)
	intent = intent.Normalize()

	interval := usage.Resolve(intent.Timeframe, s.now().In(s.loc))

	scope := usage.MatchDevices(devices, intent.DeviceName, intent.DeviceType)
	if scope.Ambiguous() {
		s.logger.Info("Device hint matched nothing, using all devices",
			zap.Int64("user_id", userID),
			zap.String("reason", string(scope.Reason)),
			zap.String("device_name", intent.DeviceName),
			zap.String("device_type", intent.DeviceType))
	}

	readings, err := s.readings.ListInRange(ctx, userID, scope.DeviceIDs, interval.Start, interval.End)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	report := usage.Aggregate(readings, intent, s.opts)

	record := &models.QueryRecord{
		UserID:   userID,
		Question: question,
		Response: report,
	}
	if err := s.queries.Create(ctx, record); err != nil {
		s.logger.Error("Failed to save query", zap.Int64("user_id", userID), zap.Error(err))
	}

	s.logger.Debug("Answered usage question",
		zap.Int64("user_id", userID),
		zap.String("intent", string(intent.Kind)),
		zap.String("timeframe", string(intent.Timeframe)),
		zap.Int("readings", len(readings)))

	return &ChatResult{
		Report:         report,
		Intent:         intent,
		Interval:       interval,
		Scope:          scope,
		IntentFallback: fallback,
	}, nil
}

// classify 调用意图识别，失败时返回默认意图
func (s *ChatService) classify(ctx context.Context, userID int64, question string, devices []*models.Device) (models.QueryIntent, bool) {
	cctx, cancel := context.WithTimeout(ctx, s.classifyTimeout)
	defer cancel()

	intent, err := s.classifier.Classify(cctx, question, devices)
	if err != nil {
		s.logger.Warn("Intent classification failed, using default intent",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return models.DefaultIntent(), true
	}
	return intent, false
}

// History 获取问答历史，最新的在前
func (s *ChatService) History(ctx context.Context, userID int64, limit, offset int) ([]*models.QueryRecord, int64, error) {
	records, err := s.queries.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list queries: %w", err)
	}
	total, err := s.queries.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count queries: %w", err)
	}
	return records, total, nil
}
