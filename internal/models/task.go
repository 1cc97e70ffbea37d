package models

import (
	"database/sql"
)

// Task is an ordered sub-item of a job. Position values within a job form a
// contiguous sequence; a job can only be completed once every task is done.
type Task struct {
	ID          int64         `db:"id" json:"id"`
	JobID       int64         `db:"job_id" json:"jobId"`
	Description string        `db:"description" json:"description"`
	Position    int           `db:"position" json:"position"`
	IsCompleted bool          `db:"is_completed" json:"isCompleted"`
	CompletedBy sql.NullInt64 `db:"completed_by" json:"completedBy"`
	CompletedAt sql.NullTime  `db:"completed_at" json:"completedAt"`
	BonusAmount float64       `db:"bonus_amount" json:"bonusAmount"`
}
