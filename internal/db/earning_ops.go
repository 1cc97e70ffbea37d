package db

import (
	"context"
	"time"

	"gigboard/internal/models"
)

const earningColumns = `
    id, worker_id, job_id, amount, service_fee, net_amount, status,
    transaction_id, date_earned, date_paid`

// CreateEarning appends an earning row. The UNIQUE (job_id, worker_id)
// constraint enforces at most one earning per completed job per worker;
// a violation surfaces as domain.ErrDuplicate.
func (s *Store) CreateEarning(ctx context.Context, e *models.Earning) error {
	query := `
        INSERT INTO earnings (
            worker_id, job_id, amount, service_fee, net_amount, status,
            transaction_id, date_earned
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, date_earned`
	err := s.db.QueryRowContext(ctx, query,
		e.WorkerID, e.JobID, e.Amount, e.ServiceFee, e.NetAmount, e.Status, e.TransactionID,
	).Scan(&e.ID, &e.DateEarned)
	if err != nil {
		return translateErr(err)
	}
	s.log.Info("earning recorded",
		"earning_id", e.ID, "job_id", e.JobID, "worker_id", e.WorkerID, "net", e.NetAmount)
	return nil
}

// GetEarningByJobWorker is the idempotency lookup before earning creation.
func (s *Store) GetEarningByJobWorker(ctx context.Context, jobID, workerID int64) (models.Earning, error) {
	var e models.Earning
	err := s.db.GetContext(ctx, &e,
		`SELECT `+earningColumns+` FROM earnings WHERE job_id = $1 AND worker_id = $2`,
		jobID, workerID)
	return e, translateErr(err)
}

// GetEarningByTransactionID looks an earning up by the transfer id.
func (s *Store) GetEarningByTransactionID(ctx context.Context, transactionID string) (models.Earning, error) {
	var e models.Earning
	err := s.db.GetContext(ctx, &e,
		`SELECT `+earningColumns+` FROM earnings WHERE transaction_id = $1`, transactionID)
	return e, translateErr(err)
}

// MarkEarningPaid records a successful payout.
func (s *Store) MarkEarningPaid(ctx context.Context, earningID int64, transactionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE earnings SET status = $1, transaction_id = $2, date_paid = $3
        WHERE id = $4`,
		models.EarningStatusPaid, transactionID, at, earningID)
	return translateErr(err)
}

// UpdateEarningStatus sets an earning's status.
func (s *Store) UpdateEarningStatus(ctx context.Context, earningID int64, status models.EarningStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE earnings SET status = $1 WHERE id = $2`, status, earningID)
	return translateErr(err)
}

// ListEarningsByWorker returns a worker's earnings, newest first.
func (s *Store) ListEarningsByWorker(ctx context.Context, workerID int64) ([]models.Earning, error) {
	var earnings []models.Earning
	err := s.db.SelectContext(ctx, &earnings,
		`SELECT `+earningColumns+` FROM earnings WHERE worker_id = $1 ORDER BY date_earned DESC`,
		workerID)
	return earnings, translateErr(err)
}
