package payments

import (
	"context"

	"gigboard/internal/models"
)

// ChargeParams describes a charge against a poster's payment method.
// A destination account turns the charge into a split payment: funds land
// on the worker's connected account minus the application fee.
type ChargeParams struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	Description     string
	Metadata        map[string]string

	CaptureNow           bool
	DestinationAccountID string
	ApplicationFeeCents  int64
}

// ChargeResult carries the processor's id and status for a charge.
type ChargeResult struct {
	ID     string
	Status string
}

// TransferResult carries the processor's id for a transfer of captured funds.
type TransferResult struct {
	ID     string
	Status string
}

// RefundResult carries the processor's id and status for a refund.
type RefundResult struct {
	ID     string
	Status string
}

// AccountState is the raw capability state of a connected payout account.
type AccountState struct {
	ChargesEnabled  bool
	PayoutsEnabled  bool
	RequirementsDue []string
}

// Gateway is the capability interface the orchestrator and reconciler
// depend on. Every operation is a network call: transient failures surface
// as *domain.GatewayError, permanent refusals as *domain.GatewayRejected.
// The adapter never retries; retry policy belongs to the caller.
type Gateway interface {
	// EnsureCustomer returns the processor customer id mapped to the user,
	// creating and persisting the mapping on first use. Idempotent.
	EnsureCustomer(ctx context.Context, userID int64) (string, error)

	// CreateCharge charges a customer's payment method, optionally as a
	// split charge towards a connected account.
	CreateCharge(ctx context.Context, p ChargeParams) (ChargeResult, error)

	// CreateTransfer moves already-captured platform funds to a worker's
	// connected account.
	CreateTransfer(ctx context.Context, destinationAccountID string, amountCents int64, metadata map[string]string) (TransferResult, error)

	// Refund refunds a charge by its external id.
	Refund(ctx context.Context, externalChargeID string) (RefundResult, error)

	// EnsureConnectedAccount returns the connected account id mapped to the
	// user, creating and persisting the mapping on first use. Idempotent.
	EnsureConnectedAccount(ctx context.Context, userID int64) (string, error)

	// OnboardingLink creates a fresh onboarding URL for a connected account.
	OnboardingLink(ctx context.Context, accountID string) (string, error)

	// GetConnectedAccountStatus fetches the account's capability flags.
	GetConnectedAccountStatus(ctx context.Context, accountID string) (AccountState, error)
}

// Charge statuses the reconciler and orchestrator care about.
const (
	ChargeStatusSucceeded = "succeeded"
	ChargeStatusPending   = "pending"
)

// DeriveAccountStatus folds the processor's capability flags into the
// ledger's account status.
func DeriveAccountStatus(s AccountState) models.AccountStatus {
	switch {
	case s.ChargesEnabled && s.PayoutsEnabled && len(s.RequirementsDue) == 0:
		return models.AccountActive
	case s.ChargesEnabled && s.PayoutsEnabled:
		return models.AccountRestricted
	case len(s.RequirementsDue) > 0:
		return models.AccountIncomplete
	default:
		return models.AccountPending
	}
}
