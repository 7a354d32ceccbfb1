package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/simulator"
)

// AuthService 注册、登录和会话校验
type AuthService struct {
	logger   *zap.Logger
	users    UserStore
	sessions SessionStore
	devices  DeviceStore
	readings ReadingStore

	sessionTTL time.Duration
	seedDemo   bool
	profiles   simulator.ProfileSet
	loc        *time.Location
	now        func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(
	cfg *config.Config,
	logger *zap.Logger,
	users UserStore,
	sessions SessionStore,
	devices DeviceStore,
	readings ReadingStore,
	profiles simulator.ProfileSet,
) *AuthService {
	return &AuthService{
		logger:     logger,
		users:      users,
		sessions:   sessions,
		devices:    devices,
		readings:   readings,
		sessionTTL: cfg.SessionTTL,
		seedDemo:   cfg.SeedDemoDevices,
		profiles:   profiles,
		loc:        cfg.Location(),
		now:        time.Now,
	}
}

// Register 注册用户，按配置创建演示设备和过去 7 天的样例读数
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))

	if s.seedDemo {
		// 演示数据失败不影响注册结果
		if err := s.seedDemoData(ctx, user.ID); err != nil {
			s.logger.Error("Failed to seed demo data", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	return user, nil
}

func (s *AuthService) seedDemoData(ctx context.Context, userID int64) error {
	devices := simulator.DemoDevices(userID)
	if err := s.devices.CreateMany(ctx, devices); err != nil {
		return fmt.Errorf("create demo devices: %w", err)
	}

	now := s.now().In(s.loc)
	gen := simulator.NewGenerator(s.profiles, now.UnixNano())
	n, err := s.readings.CreateMany(ctx, gen.History(devices, now, 7, 4))
	if err != nil {
		return fmt.Errorf("create demo readings: %w", err)
	}

	s.logger.Debug("Seeded demo data",
		zap.Int64("user_id", userID),
		zap.Int("devices", len(devices)),
		zap.Int64("readings", n))
	return nil
}

// Login 校验密码并创建会话
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn("Failed to purge expired sessions", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("Purged expired sessions", zap.Int64("count", n))
	}

	return session, nil
}

// Authenticate 校验 token，返回所属用户 ID
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrUnauthenticated
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUnauthenticated
		}
		return 0, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.logger.Warn("Failed to delete expired session", zap.Error(err))
		}
		return 0, ErrUnauthenticated
	}

	return session.UserID, nil
}

// Logout 删除会话
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
