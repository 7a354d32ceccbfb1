package service

import (
	"context"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// UserStore 用户存储
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore 会话存储
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DeviceStore 设备存储
type DeviceStore interface {
	Create(ctx context.Context, device *models.Device) error
	CreateMany(ctx context.Context, devices []*models.Device) error
	ListByUserID(ctx context.Context, userID int64) ([]*models.Device, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*models.Device, error)
	LatestReadings(ctx context.Context, userID int64) (map[int64]*models.Reading, error)
}

// ReadingStore 读数存储
type ReadingStore interface {
	Create(ctx context.Context, reading *models.Reading) error
	CreateMany(ctx context.Context, readings []*models.Reading) (int64, error)
	ListInRange(ctx context.Context, userID int64, deviceIDs []int64, start, end time.Time) ([]*models.Reading, error)
	ListSince(ctx context.Context, userID int64, deviceIDs []int64, since time.Time) ([]*models.Reading, error)
}

// QueryStore 问答历史存储
type QueryStore interface {
	Create(ctx context.Context, record *models.QueryRecord) error
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.QueryRecord, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)
}

// Notifier 向用户推送实时消息
type Notifier interface {
	SendToUser(userID int64, msgType string, data interface{})
}
