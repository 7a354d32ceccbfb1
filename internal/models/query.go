package models

import "time"

// QueryRecord 问答历史
type QueryRecord struct {
	ID        int64        `json:"id" db:"id"`
	UserID    int64        `json:"user_id" db:"user_id"`
	Question  string       `json:"question" db:"question"`
	Response  *UsageReport `json:"response" db:"response"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
