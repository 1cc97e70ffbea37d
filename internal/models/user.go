package models

import (
	"database/sql"
	"time"
)

// Role controls which side of a job a user may act on.
const (
	RolePoster = "poster"
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// AccountStatus summarizes the state of a worker's connected payout account,
// recomputed from the processor's charges/payouts flags and requirements.
type AccountStatus string

const (
	AccountNone       AccountStatus = "none"
	AccountIncomplete AccountStatus = "incomplete"
	AccountPending    AccountStatus = "pending"
	AccountActive     AccountStatus = "active"
	AccountRestricted AccountStatus = "restricted"
)

// User is a marketplace participant. The processor customer and connected
// account mappings are singletons per user, written only by the orchestrator
// and the reconciler.
type User struct {
	ID               int64          `db:"id" json:"id"`
	ChatID           sql.NullInt64  `db:"chat_id" json:"chatId"`
	Name             string         `db:"name" json:"name"`
	Email            string         `db:"email" json:"email"`
	Role             string         `db:"role" json:"role"`
	StripeCustomerID sql.NullString `db:"stripe_customer_id" json:"stripeCustomerId"`
	StripeAccountID  sql.NullString `db:"stripe_account_id" json:"stripeAccountId"`
	AccountStatus    AccountStatus  `db:"account_status" json:"accountStatus"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}
