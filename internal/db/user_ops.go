package db

import (
	"context"

	"gigboard/internal/models"
)

const userColumns = `
    id, chat_id, name, email, role, stripe_customer_id, stripe_account_id,
    account_status, created_at, updated_at`

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, userID int64) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return u, translateErr(err)
}

// GetUserByStripeAccount resolves the owner of a connected account; used by
// account.updated reconciliation where only the account id is on the event.
func (s *Store) GetUserByStripeAccount(ctx context.Context, accountID string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE stripe_account_id = $1`, accountID)
	return u, translateErr(err)
}

// SetStripeCustomerID persists the customer mapping. Last write wins:
// customer creation is idempotent at the gateway, so a race between two
// requests converges on an equivalent mapping.
func (s *Store) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET stripe_customer_id = $1, updated_at = NOW() WHERE id = $2`,
		customerID, userID)
	return translateErr(err)
}

// SetStripeAccountID persists the connected-account mapping.
func (s *Store) SetStripeAccountID(ctx context.Context, userID int64, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET stripe_account_id = $1, updated_at = NOW() WHERE id = $2`,
		accountID, userID)
	return translateErr(err)
}

// SetAccountStatus persists the recomputed connected-account status.
func (s *Store) SetAccountStatus(ctx context.Context, userID int64, status models.AccountStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET account_status = $1, updated_at = NOW() WHERE id = $2`,
		status, userID)
	return translateErr(err)
}
