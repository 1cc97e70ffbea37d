package models

import (
	"database/sql"
	"time"
)

// JobStatus is the lifecycle status of a job posting.
type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusPaid       JobStatus = "paid"
	JobStatusCancelled  JobStatus = "cancelled"
)

// JobPaymentStatus tracks the poster-side payment for a job.
type JobPaymentStatus string

const (
	JobPaymentUnpaid          JobPaymentStatus = "unpaid"
	JobPaymentPending         JobPaymentStatus = "pending"
	JobPaymentPaid            JobPaymentStatus = "paid"
	JobPaymentFailed          JobPaymentStatus = "failed"
	JobPaymentRefunded        JobPaymentStatus = "refunded"
	JobPaymentPartialRefunded JobPaymentStatus = "partial_refunded"
)

// PaymentType distinguishes fixed-price jobs (charged upfront) from hourly
// jobs (settled after completion).
type PaymentType string

const (
	PaymentTypeFixed  PaymentType = "fixed"
	PaymentTypeHourly PaymentType = "hourly"
)

// Job is a unit of work posted by a poster, optionally assigned to a worker.
// TotalAmount = PaymentAmount + ServiceFee for fixed-price jobs; for hourly
// jobs the fee is added at settlement.
type Job struct {
	ID             int64            `db:"id" json:"id"`
	PosterID       int64            `db:"poster_id" json:"posterId"`
	WorkerID       sql.NullInt64    `db:"worker_id" json:"workerId"`
	Title          string           `db:"title" json:"title"`
	Description    string           `db:"description" json:"description"`
	Category       string           `db:"category" json:"category"`
	PaymentType    PaymentType      `db:"payment_type" json:"paymentType"`
	PaymentAmount  float64          `db:"payment_amount" json:"paymentAmount"`
	ServiceFee     float64          `db:"service_fee" json:"serviceFee"`
	TotalAmount    float64          `db:"total_amount" json:"totalAmount"`
	Status         JobStatus        `db:"status" json:"status"`
	PaymentStatus  JobPaymentStatus `db:"payment_status" json:"paymentStatus"`
	TasksCompleted int              `db:"tasks_completed" json:"tasksCompleted"`
	TasksTotal     int              `db:"tasks_total" json:"tasksTotal"`
	DatePosted     time.Time        `db:"date_posted" json:"datePosted"`
	DateNeeded     sql.NullTime     `db:"date_needed" json:"dateNeeded"`
	CompletedAt    sql.NullTime     `db:"completed_at" json:"completedAt"`
}
