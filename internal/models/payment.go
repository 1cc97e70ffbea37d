package models

import (
	"database/sql"
	"time"
)

// PaymentKind classifies the direction and purpose of a payment record.
type PaymentKind string

const (
	PaymentKindJobPayment    PaymentKind = "job_payment"
	PaymentKindWorkerPayment PaymentKind = "worker_payment"
	PaymentKindRefund        PaymentKind = "refund"
	PaymentKindPayout        PaymentKind = "payout"
)

// PaymentState mirrors the processor-side status of a transaction.
type PaymentState string

const (
	PaymentStatePending         PaymentState = "pending"
	PaymentStateCompleted       PaymentState = "completed"
	PaymentStateSucceeded       PaymentState = "succeeded"
	PaymentStateFailed          PaymentState = "failed"
	PaymentStateRefunded        PaymentState = "refunded"
	PaymentStatePartialRefunded PaymentState = "partial_refunded"
	PaymentStateCanceled        PaymentState = "canceled"
)

// Payment is one monetary transaction between a user and the platform.
// TransactionID, when set, is the processor's id and is globally unique:
// it is the idempotency key for webhook reconciliation. Payment rows are
// append/status-mutate only and are never deleted.
type Payment struct {
	ID                     int64          `db:"id" json:"id"`
	UserID                 int64          `db:"user_id" json:"userId"`
	WorkerID               sql.NullInt64  `db:"worker_id" json:"workerId"`
	JobID                  sql.NullInt64  `db:"job_id" json:"jobId"`
	Amount                 float64        `db:"amount" json:"amount"`
	ServiceFee             float64        `db:"service_fee" json:"serviceFee"`
	Type                   PaymentKind    `db:"type" json:"type"`
	Status                 PaymentState   `db:"status" json:"status"`
	TransactionID          sql.NullString `db:"transaction_id" json:"transactionId"`
	StripeCustomerID       sql.NullString `db:"stripe_customer_id" json:"stripeCustomerId"`
	StripeConnectAccountID sql.NullString `db:"stripe_connect_account_id" json:"stripeConnectAccountId"`
	CreatedAt              time.Time      `db:"created_at" json:"createdAt"`
}

// IsTerminal reports whether the state can no longer move forward; applying
// the same terminal state again is a reconciliation no-op.
func (s PaymentState) IsTerminal() bool {
	switch s {
	case PaymentStateSucceeded, PaymentStateCompleted, PaymentStateFailed,
		PaymentStateRefunded, PaymentStateCanceled:
		return true
	}
	return false
}
