package db

import (
	"context"
	"fmt"
	"time"

	"gigboard/internal/models"
)

const taskColumns = `
    id, job_id, description, position, is_completed,
    completed_by, completed_at, bonus_amount`

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, taskID int64) (models.Task, error) {
	var task models.Task
	err := s.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID)
	return task, translateErr(err)
}

// ListTasks returns a job's tasks in position order.
func (s *Store) ListTasks(ctx context.Context, jobID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.SelectContext(ctx, &tasks,
		`SELECT `+taskColumns+` FROM tasks WHERE job_id = $1 ORDER BY position ASC`, jobID)
	return tasks, translateErr(err)
}

// CompleteTask marks a task done by the given worker and refreshes the
// parent job's tasks_completed counter in the same transaction, so the
// counter can never drift from the task rows.
func (s *Store) CompleteTask(ctx context.Context, taskID, workerID int64, at time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var jobID int64
	err = tx.QueryRowContext(ctx, `
        UPDATE tasks SET is_completed = TRUE, completed_by = $1, completed_at = $2
        WHERE id = $3
        RETURNING job_id`,
		workerID, at, taskID).Scan(&jobID)
	if err != nil {
		return translateErr(err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE jobs SET tasks_completed = (
            SELECT COUNT(*) FROM tasks WHERE job_id = $1 AND is_completed
        )
        WHERE id = $1`, jobID)
	if err != nil {
		return translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task completion: %w", err)
	}
	return nil
}

// CountIncompleteTasks reports how many of a job's tasks remain open.
func (s *Store) CountIncompleteTasks(ctx context.Context, jobID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM tasks WHERE job_id = $1 AND NOT is_completed`, jobID)
	if err != nil {
		return 0, translateErr(err)
	}
	return n, nil
}
