package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gigboard/internal/domain"
	"gigboard/internal/models"
)

const stripeAPIBase = "https://api.stripe.com"

// CustomerDirectory is the slice of the ledger store the adapter needs to
// keep the per-user customer and connected-account mappings.
type CustomerDirectory interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error
	SetStripeAccountID(ctx context.Context, userID int64, accountID string) error
}

// StripeGateway implements Gateway against the Stripe REST API directly:
// form-encoded requests, bearer auth and a fresh idempotency key per
// mutating call.
type StripeGateway struct {
	apiKey     string
	baseURL    string
	returnURL  string
	httpClient *http.Client
	users      CustomerDirectory
	log        *slog.Logger
}

// NewStripeGateway builds the adapter. returnURL is where onboarding links
// send the user back to.
func NewStripeGateway(apiKey, returnURL string, users CustomerDirectory, log *slog.Logger) *StripeGateway {
	return &StripeGateway{
		apiKey:     apiKey,
		baseURL:    stripeAPIBase,
		returnURL:  returnURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		users:      users,
		log:        log,
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (g *StripeGateway) WithBaseURL(base string) *StripeGateway {
	g.baseURL = strings.TrimSuffix(base, "/")
	return g
}

type stripeCustomer struct {
	ID string `json:"id"`
}

type stripePaymentIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeTransfer struct {
	ID string `json:"id"`
}

type stripeRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeAccount struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	Requirements   struct {
		CurrentlyDue []string `json:"currently_due"`
	} `json:"requirements"`
}

type stripeAccountLink struct {
	URL string `json:"url"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) EnsureCustomer(ctx context.Context, userID int64) (string, error) {
	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID.Valid && user.StripeCustomerID.String != "" {
		return user.StripeCustomerID.String, nil
	}

	form := url.Values{}
	form.Set("email", user.Email)
	form.Set("name", user.Name)
	form.Set("metadata[user_id]", strconv.FormatInt(user.ID, 10))

	var customer stripeCustomer
	if err := g.post(ctx, "/v1/customers", form, &customer); err != nil {
		return "", err
	}
	if err := g.users.SetStripeCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", fmt.Errorf("persist customer mapping: %w", err)
	}
	g.log.Info("stripe customer created", "user_id", user.ID, "customer_id", customer.ID)
	return customer.ID, nil
}

func (g *StripeGateway) CreateCharge(ctx context.Context, p ChargeParams) (ChargeResult, error) {
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.AmountCents, 10))
	form.Set("currency", currency)
	form.Set("customer", p.CustomerID)
	form.Set("payment_method", p.PaymentMethodID)
	form.Set("confirm", "true")
	form.Set("description", p.Description)
	if p.CaptureNow {
		form.Set("capture_method", "automatic")
	} else {
		form.Set("capture_method", "manual")
	}
	if p.DestinationAccountID != "" {
		form.Set("transfer_data[destination]", p.DestinationAccountID)
		if p.ApplicationFeeCents > 0 {
			form.Set("application_fee_amount", strconv.FormatInt(p.ApplicationFeeCents, 10))
		}
	}
	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent stripePaymentIntent
	if err := g.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return ChargeResult{}, err
	}
	return ChargeResult{ID: intent.ID, Status: intent.Status}, nil
}

func (g *StripeGateway) CreateTransfer(ctx context.Context, destinationAccountID string, amountCents int64, metadata map[string]string) (TransferResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", "usd")
	form.Set("destination", destinationAccountID)
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var transfer stripeTransfer
	if err := g.post(ctx, "/v1/transfers", form, &transfer); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{ID: transfer.ID, Status: ChargeStatusPending}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, externalChargeID string) (RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", externalChargeID)

	var refund stripeRefund
	if err := g.post(ctx, "/v1/refunds", form, &refund); err != nil {
		return RefundResult{}, err
	}
	return RefundResult{ID: refund.ID, Status: refund.Status}, nil
}

func (g *StripeGateway) EnsureConnectedAccount(ctx context.Context, userID int64) (string, error) {
	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeAccountID.Valid && user.StripeAccountID.String != "" {
		return user.StripeAccountID.String, nil
	}

	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", user.Email)
	form.Set("metadata[user_id]", strconv.FormatInt(user.ID, 10))

	var account stripeAccount
	if err := g.post(ctx, "/v1/accounts", form, &account); err != nil {
		return "", err
	}
	if err := g.users.SetStripeAccountID(ctx, user.ID, account.ID); err != nil {
		return "", fmt.Errorf("persist account mapping: %w", err)
	}
	g.log.Info("stripe connected account created", "user_id", user.ID, "account_id", account.ID)
	return account.ID, nil
}

func (g *StripeGateway) OnboardingLink(ctx context.Context, accountID string) (string, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("type", "account_onboarding")
	form.Set("refresh_url", g.returnURL+"/payout-account/refresh")
	form.Set("return_url", g.returnURL+"/payout-account/return")

	var link stripeAccountLink
	if err := g.post(ctx, "/v1/account_links", form, &link); err != nil {
		return "", err
	}
	return link.URL, nil
}

func (g *StripeGateway) GetConnectedAccountStatus(ctx context.Context, accountID string) (AccountState, error) {
	var account stripeAccount
	if err := g.get(ctx, "/v1/accounts/"+accountID, &account); err != nil {
		return AccountState{}, err
	}
	return AccountState{
		ChargesEnabled:  account.ChargesEnabled,
		PayoutsEnabled:  account.PayoutsEnabled,
		RequirementsDue: account.Requirements.CurrentlyDue,
	}, nil
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return &domain.GatewayError{Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.New().String())
	return g.do(req, path, out)
}

func (g *StripeGateway) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return &domain.GatewayError{Op: path, Err: err}
	}
	return g.do(req, path, out)
}

func (g *StripeGateway) do(req *http.Request, op string, out any) error {
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &domain.GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.GatewayError{Op: op, Err: err}
	}

	if resp.StatusCode >= 500 {
		g.log.Error("stripe server error", "op", op, "status", resp.StatusCode, "body", string(body))
		return &domain.GatewayError{Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		var stripeErr stripeErrorBody
		if err := json.Unmarshal(body, &stripeErr); err != nil || stripeErr.Error.Message == "" {
			return &domain.GatewayError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
		}
		g.log.Warn("stripe request rejected",
			"op", op, "type", stripeErr.Error.Type, "code", stripeErr.Error.Code)
		return &domain.GatewayRejected{Code: stripeErr.Error.Code, Message: stripeErr.Error.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.GatewayError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
