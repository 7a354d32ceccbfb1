package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/langchou/wattgazer/internal/models"
)

// ReadingRepository 功率读数仓库
type ReadingRepository struct {
	db *DB
}

// NewReadingRepository 创建读数仓库
func NewReadingRepository(db *DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Create 写入单条读数
func (r *ReadingRepository) Create(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (device_id, energy_watts, recorded_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		reading.DeviceID,
		reading.EnergyWatts,
		reading.Timestamp,
	).Scan(&reading.ID)
	if err != nil {
		return fmt.Errorf("insert reading: %w", translateError(err))
	}
	return nil
}

// CreateMany 使用 COPY 批量写入读数
func (r *ReadingRepository) CreateMany(ctx context.Context, readings []*models.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}
	n, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"readings"},
		[]string{"device_id", "energy_watts", "recorded_at"},
		pgx.CopyFromSlice(len(readings), func(i int) ([]any, error) {
			rd := readings[i]
			return []any{rd.DeviceID, rd.EnergyWatts, rd.Timestamp}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy readings: %w", translateError(err))
	}
	return n, nil
}

// ListInRange 获取用户在 [start, end] 内的读数，按时间升序
// deviceIDs 为 nil 时不过滤设备
func (r *ReadingRepository) ListInRange(ctx context.Context, userID int64, deviceIDs []int64, start, end time.Time) ([]*models.Reading, error) {
	query := `
		SELECT r.id, r.device_id, d.name, r.energy_watts, r.recorded_at
		FROM readings r
		JOIN devices d ON d.id = r.device_id
		WHERE d.user_id = $1 AND r.recorded_at >= $2 AND r.recorded_at <= $3
	`
	args := []any{userID, start, end}
	if deviceIDs != nil {
		query += ` AND r.device_id = ANY($4)`
		args = append(args, deviceIDs)
	}
	query += ` ORDER BY r.recorded_at, r.id`

	return r.list(ctx, query, args...)
}

// ListSince 获取用户从 since 起的读数，按时间升序
// deviceIDs 为 nil 时不过滤设备
func (r *ReadingRepository) ListSince(ctx context.Context, userID int64, deviceIDs []int64, since time.Time) ([]*models.Reading, error) {
	query := `
		SELECT r.id, r.device_id, d.name, r.energy_watts, r.recorded_at
		FROM readings r
		JOIN devices d ON d.id = r.device_id
		WHERE d.user_id = $1 AND r.recorded_at >= $2
	`
	args := []any{userID, since}
	if deviceIDs != nil {
		query += ` AND r.device_id = ANY($3)`
		args = append(args, deviceIDs)
	}
	query += ` ORDER BY r.recorded_at, r.id`

	return r.list(ctx, query, args...)
}

func (r *ReadingRepository) list(ctx context.Context, query string, args ...any) ([]*models.Reading, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		rd := &models.Reading{}
		if err := rows.Scan(&rd.ID, &rd.DeviceID, &rd.DeviceName, &rd.EnergyWatts, &rd.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, rd)
	}
	return readings, rows.Err()
}
