package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/langchou/wattgazer/internal/models"
)

// DeviceRepository 设备数据仓库
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository 创建设备仓库
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create 创建设备
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (user_id, name, type, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	now := time.Now()
	err := r.db.Pool.QueryRow(ctx, query,
		device.UserID,
		device.Name,
		device.Type,
		now,
	).Scan(&device.ID)

	if err != nil {
		return fmt.Errorf("insert device: %w", translateError(err))
	}

	device.CreatedAt = now
	return nil
}

// CreateMany 在一个事务中批量创建设备
func (r *DeviceRepository) CreateMany(ctx context.Context, devices []*models.Device) error {
	if len(devices) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	batch := &pgx.Batch{}
	for _, d := range devices {
		batch.Queue(`INSERT INTO devices (user_id, name, type, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			d.UserID, d.Name, d.Type, now)
	}

	results := tx.SendBatch(ctx, batch)
	for _, d := range devices {
		if err := results.QueryRow().Scan(&d.ID); err != nil {
			results.Close()
			return fmt.Errorf("insert device %q: %w", d.Name, translateError(err))
		}
		d.CreatedAt = now
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// ListByUserID 获取用户的全部设备，按 ID 排序
func (r *DeviceRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Device, error) {
	query := `SELECT id, user_id, name, type, created_at FROM devices WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		d := &models.Device{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// GetByIDForUser 获取属于指定用户的设备，不属于该用户时返回 ErrNotFound
func (r *DeviceRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Device, error) {
	query := `SELECT id, user_id, name, type, created_at FROM devices WHERE id = $1 AND user_id = $2`
	d := &models.Device{}
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", translateError(err))
	}
	return d, nil
}

// LatestReadings 获取用户每台设备的最新读数，键为设备 ID
func (r *DeviceRepository) LatestReadings(ctx context.Context, userID int64) (map[int64]*models.Reading, error) {
	query := `
		SELECT DISTINCT ON (r.device_id) r.id, r.device_id, d.name, r.energy_watts, r.recorded_at
		FROM readings r
		JOIN devices d ON d.id = r.device_id
		WHERE d.user_id = $1
		ORDER BY r.device_id, r.recorded_at DESC, r.id DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query latest readings: %w", err)
	}
	defer rows.Close()

	latest := make(map[int64]*models.Reading)
	for rows.Next() {
		rd := &models.Reading{}
		if err := rows.Scan(&rd.ID, &rd.DeviceID, &rd.DeviceName, &rd.EnergyWatts, &rd.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		latest[rd.DeviceID] = rd
	}
	return latest, rows.Err()
}
