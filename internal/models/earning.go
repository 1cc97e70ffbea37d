package models

import (
	"database/sql"
	"time"
)

// EarningStatus tracks payout progress for a worker's earning.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusPaid      EarningStatus = "paid"
	EarningStatusFailed    EarningStatus = "failed"
	EarningStatusCancelled EarningStatus = "cancelled"
)

// Earning records money owed or paid to a worker for a completed job.
// At most one earning exists per (job, worker) pair; NetAmount is always
// derived as Amount - ServiceFee and never mutated independently.
type Earning struct {
	ID            int64          `db:"id" json:"id"`
	WorkerID      int64          `db:"worker_id" json:"workerId"`
	JobID         int64          `db:"job_id" json:"jobId"`
	Amount        float64        `db:"amount" json:"amount"`
	ServiceFee    float64        `db:"service_fee" json:"serviceFee"`
	NetAmount     float64        `db:"net_amount" json:"netAmount"`
	Status        EarningStatus  `db:"status" json:"status"`
	TransactionID sql.NullString `db:"transaction_id" json:"transactionId"`
	DateEarned    time.Time      `db:"date_earned" json:"dateEarned"`
	DatePaid      sql.NullTime   `db:"date_paid" json:"datePaid"`
}
