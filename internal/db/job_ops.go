package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gigboard/internal/domain"
	"gigboard/internal/models"
)

const jobColumns = `
    id, poster_id, worker_id, title, description, category,
    payment_type, payment_amount, service_fee, total_amount,
    status, payment_status, tasks_completed, tasks_total,
    date_posted, date_needed, completed_at`

// CreateJob inserts a job together with its ordered tasks in one
// transaction. The job id, task ids and task positions are filled in.
func (s *Store) CreateJob(ctx context.Context, job *models.Job, tasks []models.Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO jobs (
            poster_id, title, description, category,
            payment_type, payment_amount, service_fee, total_amount,
            status, payment_status, tasks_total, date_posted, date_needed
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), $12)
        RETURNING id, date_posted`
	err = tx.QueryRowContext(ctx, query,
		job.PosterID, job.Title, job.Description, job.Category,
		job.PaymentType, job.PaymentAmount, job.ServiceFee, job.TotalAmount,
		job.Status, job.PaymentStatus, len(tasks), job.DateNeeded,
	).Scan(&job.ID, &job.DatePosted)
	if err != nil {
		return translateErr(err)
	}
	job.TasksTotal = len(tasks)

	for i := range tasks {
		tasks[i].JobID = job.ID
		tasks[i].Position = i + 1
		err = tx.QueryRowContext(ctx, `
            INSERT INTO tasks (job_id, description, position, bonus_amount)
            VALUES ($1, $2, $3, $4)
            RETURNING id`,
			tasks[i].JobID, tasks[i].Description, tasks[i].Position, tasks[i].BonusAmount,
		).Scan(&tasks[i].ID)
		if err != nil {
			return translateErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit job creation: %w", err)
	}
	s.log.Info("job created", "job_id", job.ID, "poster_id", job.PosterID, "type", job.PaymentType)
	return nil
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, jobID int64) (models.Job, error) {
	var job models.Job
	err := s.db.GetContext(ctx, &job, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	return job, translateErr(err)
}

// ListJobsByPoster returns a poster's jobs, newest first.
func (s *Store) ListJobsByPoster(ctx context.Context, posterID int64) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs WHERE poster_id = $1 ORDER BY date_posted DESC`, posterID)
	return jobs, translateErr(err)
}

// UpdateJobStatus moves a job to the given lifecycle status.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID int64, status models.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1 WHERE id = $2`, status, jobID)
	if err != nil {
		return translateErr(err)
	}
	return s.requireRow(res, jobID)
}

// SetJobPaymentStatus updates only the poster-side payment status.
func (s *Store) SetJobPaymentStatus(ctx context.Context, jobID int64, status models.JobPaymentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET payment_status = $1 WHERE id = $2`, status, jobID)
	if err != nil {
		return translateErr(err)
	}
	return s.requireRow(res, jobID)
}

// AssignWorker sets the worker and transitions the job to assigned.
func (s *Store) AssignWorker(ctx context.Context, jobID, workerID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET worker_id = $1, status = $2 WHERE id = $3`,
		workerID, models.JobStatusAssigned, jobID)
	if err != nil {
		return translateErr(err)
	}
	return s.requireRow(res, jobID)
}

// MarkJobCompleted stamps the completion time and sets status to completed.
func (s *Store) MarkJobCompleted(ctx context.Context, jobID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, completed_at = $2 WHERE id = $3`,
		models.JobStatusCompleted, at, jobID)
	if err != nil {
		return translateErr(err)
	}
	return s.requireRow(res, jobID)
}

// UpdateJobAmounts rewrites the payment amount and recomputes the total so
// the totalAmount = paymentAmount + serviceFee invariant holds after edits.
func (s *Store) UpdateJobAmounts(ctx context.Context, jobID int64, paymentAmount, serviceFee float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET payment_amount = $1, service_fee = $2, total_amount = $1 + $2 WHERE id = $3`,
		paymentAmount, serviceFee, jobID)
	if err != nil {
		return translateErr(err)
	}
	return s.requireRow(res, jobID)
}

func (s *Store) requireRow(res sql.Result, jobID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %d: %w", jobID, domain.ErrNotFound)
	}
	return nil
}
