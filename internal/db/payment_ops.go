package db

import (
	"context"
	"database/sql"

	"gigboard/internal/models"
)

const paymentColumns = `
    id, user_id, worker_id, job_id, amount, service_fee, type, status,
    transaction_id, stripe_customer_id, stripe_connect_account_id, created_at`

// CreatePayment appends a payment record. A duplicate transaction id is
// rejected by the unique index and surfaces as domain.ErrDuplicate; callers
// in the reconciliation path treat that as "already recorded".
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
        INSERT INTO payments (
            user_id, worker_id, job_id, amount, service_fee, type, status,
            transaction_id, stripe_customer_id, stripe_connect_account_id, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		p.UserID, p.WorkerID, p.JobID, p.Amount, p.ServiceFee, p.Type, p.Status,
		p.TransactionID, p.StripeCustomerID, p.StripeConnectAccountID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return translateErr(err)
	}
	s.log.Info("payment recorded",
		"payment_id", p.ID, "type", p.Type, "status", p.Status,
		"transaction_id", p.TransactionID.String)
	return nil
}

// GetPaymentByTransactionID looks a payment up by the processor's id.
func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	return p, translateErr(err)
}

// LatestJobPayment returns the most recent non-refund payment for a job.
// Used by cancellation to find the charge to refund.
func (s *Store) LatestJobPayment(ctx context.Context, jobID int64) (models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p, `
        SELECT `+paymentColumns+`
        FROM payments
        WHERE job_id = $1 AND type <> $2
        ORDER BY created_at DESC, id DESC
        LIMIT 1`, jobID, models.PaymentKindRefund)
	return p, translateErr(err)
}

// UpdatePaymentStatus sets a payment's status by row id.
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status models.PaymentState) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = $1 WHERE id = $2`, status, paymentID)
	return translateErr(err)
}

// UpdatePaymentStatusByTransactionID sets the status of the payment mapped
// to an external transaction id. Status is updated, never recreated: the
// row keeps its identity across webhook redeliveries.
func (s *Store) UpdatePaymentStatusByTransactionID(ctx context.Context, transactionID string, status models.PaymentState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = $1 WHERE transaction_id = $2`, status, transactionID)
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return translateErr(sql.ErrNoRows)
	}
	return nil
}

// ListPaymentsByUser returns a user's payments, newest first.
func (s *Store) ListPaymentsByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments, `
        SELECT `+paymentColumns+`
        FROM payments
        WHERE user_id = $1 OR worker_id = $1
        ORDER BY created_at DESC`, userID)
	return payments, translateErr(err)
}
