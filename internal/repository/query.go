package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/langchou/wattgazer/internal/models"
)

// QueryRepository 问答历史仓库
type QueryRepository struct {
	db *DB
}

// NewQueryRepository 创建问答历史仓库
func NewQueryRepository(db *DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// Create 保存一次问答
func (r *QueryRepository) Create(ctx context.Context, record *models.QueryRecord) error {
	response, err := json.Marshal(record.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	query := `
		INSERT INTO queries (user_id, question, response, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	now := time.Now()
	err = r.db.Pool.QueryRow(ctx, query,
		record.UserID,
		record.Question,
		string(response),
		now,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("insert query: %w", translateError(err))
	}

	record.CreatedAt = now
	return nil
}

// ListByUserID 获取用户的问答历史，最新的在前
func (r *QueryRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.QueryRecord, error) {
	query := `
		SELECT id, user_id, question, response::text, created_at
		FROM queries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []*models.QueryRecord
	for rows.Next() {
		rec := &models.QueryRecord{}
		var response string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Question, &response, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		rec.Response = &models.UsageReport{}
		if err := json.Unmarshal([]byte(response), rec.Response); err != nil {
			return nil, fmt.Errorf("decode response of query %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByUserID 统计用户的问答数量
func (r *QueryRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM queries WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count queries: %w", err)
	}
	return count, nil
}
