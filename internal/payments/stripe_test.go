package payments

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigboard/internal/domain"
	"gigboard/internal/models"
)

type fakeDirectory struct {
	users       map[int64]models.User
	customerSet int
	accountSet  int
}

func (f *fakeDirectory) GetUser(_ context.Context, id int64) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) SetStripeCustomerID(_ context.Context, id int64, customerID string) error {
	u := f.users[id]
	u.StripeCustomerID = sql.NullString{String: customerID, Valid: true}
	f.users[id] = u
	f.customerSet++
	return nil
}

func (f *fakeDirectory) SetStripeAccountID(_ context.Context, id int64, accountID string) error {
	u := f.users[id]
	u.StripeAccountID = sql.NullString{String: accountID, Valid: true}
	f.users[id] = u
	f.accountSet++
	return nil
}

func testGateway(t *testing.T, handler http.Handler) (*StripeGateway, *fakeDirectory) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := &fakeDirectory{users: map[int64]models.User{
		1: {ID: 1, Name: "Ada", Email: "ada@example.com", Role: models.RolePoster},
	}}
	gw := NewStripeGateway("sk_test_123", "http://localhost:8080", dir, slog.New(slog.DiscardHandler)).
		WithBaseURL(srv.URL)
	return gw, dir
}

func TestEnsureCustomerIsIdempotent(t *testing.T) {
	var calls atomic.Int64
	gw, dir := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/v1/customers", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		w.Write([]byte(`{"id": "cus_abc"}`))
	}))

	id1, err := gw.EnsureCustomer(context.Background(), 1)
	require.NoError(t, err)
	id2, err := gw.EnsureCustomer(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "cus_abc", id1)
	assert.Equal(t, id1, id2)
	assert.Equal(t, int64(1), calls.Load(), "second call must reuse the persisted mapping")
	assert.Equal(t, 1, dir.customerSet)
}

func TestCreateChargeSplitPayment(t *testing.T) {
	gw, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5250", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "cus_abc", r.PostForm.Get("customer"))
		assert.Equal(t, "pm_card", r.PostForm.Get("payment_method"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "automatic", r.PostForm.Get("capture_method"))
		assert.Equal(t, "acct_w1", r.PostForm.Get("transfer_data[destination]"))
		assert.Equal(t, "250", r.PostForm.Get("application_fee_amount"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[job_id]"))
		w.Write([]byte(`{"id": "pi_1", "status": "succeeded"}`))
	}))

	res, err := gw.CreateCharge(context.Background(), ChargeParams{
		CustomerID:           "cus_abc",
		PaymentMethodID:      "pm_card",
		AmountCents:          5250,
		CaptureNow:           true,
		DestinationAccountID: "acct_w1",
		ApplicationFeeCents:  250,
		Metadata:             map[string]string{"job_id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", res.ID)
	assert.Equal(t, ChargeStatusSucceeded, res.Status)
}

func TestCardErrorIsRejectedNotTransient(t *testing.T) {
	gw, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "code": "card_declined", "message": "Your card was declined."}}`))
	}))

	_, err := gw.CreateCharge(context.Background(), ChargeParams{
		CustomerID: "cus_abc", PaymentMethodID: "pm_bad", AmountCents: 5000, CaptureNow: true,
	})
	var rejected *domain.GatewayRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "card_declined", rejected.Code)
}

func TestServerErrorIsTransient(t *testing.T) {
	gw, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := gw.Refund(context.Background(), "pi_1")
	var transient *domain.GatewayError
	assert.ErrorAs(t, err, &transient)
}

func TestGetConnectedAccountStatus(t *testing.T) {
	gw, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts/acct_w1", r.URL.Path)
		w.Write([]byte(`{
            "id": "acct_w1",
            "charges_enabled": true,
            "payouts_enabled": false,
            "requirements": {"currently_due": ["individual.id_number"]}
        }`))
	}))

	state, err := gw.GetConnectedAccountStatus(context.Background(), "acct_w1")
	require.NoError(t, err)
	assert.True(t, state.ChargesEnabled)
	assert.False(t, state.PayoutsEnabled)
	assert.Equal(t, []string{"individual.id_number"}, state.RequirementsDue)
}

func TestEnsureConnectedAccountPersistsMapping(t *testing.T) {
	gw, dir := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts", r.URL.Path)
		w.Write([]byte(`{"id": "acct_new"}`))
	}))

	id, err := gw.EnsureConnectedAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "acct_new", id)
	assert.Equal(t, 1, dir.accountSet)

	// Mapping persisted: second call never leaves the directory.
	id2, err := gw.EnsureConnectedAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, 1, dir.accountSet)
}
