package reconciler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigboard/internal/domain"
	"gigboard/internal/models"
)

const testSecret = "whsec_test"

type fakeStore struct {
	users    map[int64]models.User
	jobs     map[int64]models.Job
	payments map[string]models.Payment
	earnings map[string]models.Earning

	paymentWrites int
	statusWrites  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]models.User{},
		jobs:     map[int64]models.Job{},
		payments: map[string]models.Payment{},
		earnings: map[string]models.Earning{},
	}
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByStripeAccount(_ context.Context, accountID string) (models.User, error) {
	for _, u := range f.users {
		if u.StripeAccountID.Valid && u.StripeAccountID.String == accountID {
			return u, nil
		}
	}
	return models.User{}, domain.ErrNotFound
}

func (f *fakeStore) SetAccountStatus(_ context.Context, id int64, status models.AccountStatus) error {
	u := f.users[id]
	u.AccountStatus = status
	f.users[id] = u
	f.statusWrites++
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, id int64) (models.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return models.Job{}, domain.ErrNotFound
	}
	return j, nil
}

func (f *fakeStore) SetJobPaymentStatus(_ context.Context, id int64, status models.JobPaymentStatus) error {
	j := f.jobs[id]
	j.PaymentStatus = status
	f.jobs[id] = j
	return nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) error {
	if _, exists := f.payments[p.TransactionID.String]; exists {
		return domain.ErrDuplicate
	}
	p.ID = int64(len(f.payments) + 1)
	f.payments[p.TransactionID.String] = *p
	f.paymentWrites++
	return nil
}

func (f *fakeStore) GetPaymentByTransactionID(_ context.Context, txnID string) (models.Payment, error) {
	p, ok := f.payments[txnID]
	if !ok {
		return models.Payment{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) UpdatePaymentStatusByTransactionID(_ context.Context, txnID string, status models.PaymentState) error {
	p, ok := f.payments[txnID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	f.payments[txnID] = p
	f.paymentWrites++
	return nil
}

func (f *fakeStore) GetEarningByTransactionID(_ context.Context, txnID string) (models.Earning, error) {
	e, ok := f.earnings[txnID]
	if !ok {
		return models.Earning{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) MarkEarningPaid(_ context.Context, id int64, txnID string, at time.Time) error {
	e := f.earnings[txnID]
	e.Status = models.EarningStatusPaid
	e.DatePaid = sql.NullTime{Time: at, Valid: true}
	f.earnings[txnID] = e
	return nil
}

func (f *fakeStore) UpdateEarningStatus(_ context.Context, id int64, status models.EarningStatus) error {
	for txn, e := range f.earnings {
		if e.ID == id {
			e.Status = status
			f.earnings[txn] = e
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeSettler struct {
	calls []int64
}

func (s *fakeSettler) EnsureEarningAndPayout(_ context.Context, job models.Job) error {
	s.calls = append(s.calls, job.ID)
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, _ models.User, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func newTestReconciler() (*Reconciler, *fakeStore, *fakeSettler, *fakeNotifier) {
	store := newFakeStore()
	settler := &fakeSettler{}
	notifier := &fakeNotifier{}
	r := New(testSecret, store, settler, notifier, slog.New(slog.DiscardHandler))
	return r, store, settler, notifier
}

func deliver(t *testing.T, r *Reconciler, eventType, object string) error {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"id": "evt_1", "type": %q, "data": {"object": %s}}`, eventType, object))
	return r.Process(context.Background(), body, Sign(testSecret, body, time.Now()))
}

func TestRejectsBadSignature(t *testing.T) {
	r, _, _, _ := newTestReconciler()
	body := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded"}`)

	err := r.Process(context.Background(), body, Sign("whsec_wrong", body, time.Now()))
	assert.ErrorIs(t, err, ErrBadSignature)

	err = r.Process(context.Background(), body, "garbage")
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestRejectsStaleSignature(t *testing.T) {
	r, _, _, _ := newTestReconciler()
	body := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded"}`)

	err := r.Process(context.Background(), body, Sign(testSecret, body, time.Now().Add(-10*time.Minute)))
	assert.ErrorIs(t, err, ErrStaleSignature)
}

func TestUnknownEventAcknowledged(t *testing.T) {
	r, _, _, _ := newTestReconciler()
	assert.NoError(t, deliver(t, r, "invoice.finalized", `{"id": "in_1"}`))
}

func TestPaymentSucceededMarksJobPaid(t *testing.T) {
	r, store, settler, _ := newTestReconciler()
	store.jobs[7] = models.Job{ID: 7, PosterID: 1, Status: models.JobStatusOpen, PaymentStatus: models.JobPaymentPending}
	store.payments["pi_1"] = models.Payment{
		ID: 1, UserID: 1, JobID: sql.NullInt64{Int64: 7, Valid: true},
		Type: models.PaymentKindJobPayment, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "pi_1", Valid: true},
	}

	err := deliver(t, r, EventPaymentSucceeded, `{"id": "pi_1", "status": "succeeded"}`)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStateSucceeded, store.payments["pi_1"].Status)
	assert.Equal(t, models.JobPaymentPaid, store.jobs[7].PaymentStatus)
	assert.Empty(t, settler.calls, "an open job must not trigger a payout")
}

func TestPaymentSucceededTriggersPayoutForCompletedJob(t *testing.T) {
	r, store, settler, _ := newTestReconciler()
	store.jobs[7] = models.Job{ID: 7, PosterID: 1, Status: models.JobStatusCompleted, PaymentStatus: models.JobPaymentPending}
	store.payments["pi_1"] = models.Payment{
		ID: 1, UserID: 1, JobID: sql.NullInt64{Int64: 7, Valid: true},
		Type: models.PaymentKindJobPayment, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "pi_1", Valid: true},
	}

	require.NoError(t, deliver(t, r, EventPaymentSucceeded, `{"id": "pi_1", "status": "succeeded"}`))
	assert.Equal(t, []int64{7}, settler.calls)
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	r, store, _, _ := newTestReconciler()
	store.jobs[7] = models.Job{ID: 7, PosterID: 1, Status: models.JobStatusOpen, PaymentStatus: models.JobPaymentPending}
	store.payments["pi_1"] = models.Payment{
		ID: 1, UserID: 1, JobID: sql.NullInt64{Int64: 7, Valid: true},
		Type: models.PaymentKindJobPayment, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "pi_1", Valid: true},
	}

	require.NoError(t, deliver(t, r, EventPaymentSucceeded, `{"id": "pi_1", "status": "succeeded"}`))
	writes := store.paymentWrites

	require.NoError(t, deliver(t, r, EventPaymentSucceeded, `{"id": "pi_1", "status": "succeeded"}`))
	assert.Equal(t, writes, store.paymentWrites, "redelivery must not write the ledger again")
	assert.Equal(t, models.PaymentStateSucceeded, store.payments["pi_1"].Status)
}

func TestOrphanedChargeIsAdopted(t *testing.T) {
	r, store, _, _ := newTestReconciler()
	store.jobs[7] = models.Job{
		ID: 7, PosterID: 1, Status: models.JobStatusOpen, PaymentStatus: models.JobPaymentUnpaid,
		PaymentAmount: 50, ServiceFee: 2.50, TotalAmount: 52.50,
	}

	err := deliver(t, r, EventPaymentSucceeded,
		`{"id": "pi_orphan", "status": "succeeded", "amount": 5250, "metadata": {"job_id": "7", "poster_id": "1"}}`)
	require.NoError(t, err)

	p, ok := store.payments["pi_orphan"]
	require.True(t, ok, "a ledger row must be created from the charge metadata")
	assert.Equal(t, 50.0, p.Amount)
	assert.Equal(t, 2.50, p.ServiceFee)
	assert.Equal(t, models.PaymentStateSucceeded, p.Status)
	assert.Equal(t, models.JobPaymentPaid, store.jobs[7].PaymentStatus)
}

func TestChargeEventWithoutMetadataAcknowledged(t *testing.T) {
	r, store, _, _ := newTestReconciler()
	require.NoError(t, deliver(t, r, EventPaymentSucceeded, `{"id": "pi_mystery", "status": "succeeded"}`))
	assert.Empty(t, store.payments)
}

func TestPaymentFailedKeepsJobPayable(t *testing.T) {
	r, store, _, nt := newTestReconciler()
	store.users[1] = models.User{ID: 1, Role: models.RolePoster}
	store.jobs[7] = models.Job{ID: 7, PosterID: 1, Status: models.JobStatusOpen, PaymentStatus: models.JobPaymentPending}
	store.payments["pi_1"] = models.Payment{
		ID: 1, UserID: 1, JobID: sql.NullInt64{Int64: 7, Valid: true},
		Type: models.PaymentKindJobPayment, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "pi_1", Valid: true},
	}

	require.NoError(t, deliver(t, r, EventPaymentFailed, `{"id": "pi_1", "status": "requires_payment_method"}`))

	assert.Equal(t, models.PaymentStateFailed, store.payments["pi_1"].Status)
	assert.Equal(t, models.JobPaymentFailed, store.jobs[7].PaymentStatus)
	require.Len(t, nt.messages, 1)
	assert.Contains(t, nt.messages[0], "failed")
}

func TestRefundIsNotRolledBackByLateSuccess(t *testing.T) {
	r, store, _, _ := newTestReconciler()
	store.jobs[7] = models.Job{ID: 7, PosterID: 1, Status: models.JobStatusCancelled, PaymentStatus: models.JobPaymentPending}
	store.payments["pi_1"] = models.Payment{
		ID: 1, UserID: 1, JobID: sql.NullInt64{Int64: 7, Valid: true},
		Type: models.PaymentKindJobPayment, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "pi_1", Valid: true},
	}

	require.NoError(t, deliver(t, r, EventChargeRefunded, `{"id": "ch_1", "payment_intent": "pi_1", "refunded": true}`))
	assert.Equal(t, models.PaymentStateRefunded, store.payments["pi_1"].Status)
	assert.Equal(t, models.JobPaymentRefunded, store.jobs[7].PaymentStatus)

	require.NoError(t, deliver(t, r, EventPaymentSucceeded, `{"id": "pi_1", "status": "succeeded"}`))
	assert.Equal(t, models.PaymentStateRefunded, store.payments["pi_1"].Status, "a refund is final")
	assert.Equal(t, models.JobPaymentRefunded, store.jobs[7].PaymentStatus)
}

func TestTransferFailedRevertsEarningAndNotifies(t *testing.T) {
	r, store, _, nt := newTestReconciler()
	store.users[1] = models.User{ID: 1, Role: models.RolePoster}
	store.users[2] = models.User{ID: 2, Role: models.RoleWorker}
	store.jobs[7] = models.Job{ID: 7, PosterID: 1, Status: models.JobStatusPaid}
	store.payments["tr_1"] = models.Payment{
		ID: 1, UserID: 1, Type: models.PaymentKindPayout, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "tr_1", Valid: true},
	}
	store.earnings["tr_1"] = models.Earning{
		ID: 5, WorkerID: 2, JobID: 7, Status: models.EarningStatusPaid,
		TransactionID: sql.NullString{String: "tr_1", Valid: true},
	}

	require.NoError(t, deliver(t, r, EventTransferFailed, `{"id": "tr_1"}`))

	assert.Equal(t, models.PaymentStateFailed, store.payments["tr_1"].Status)
	assert.Equal(t, models.EarningStatusPending, store.earnings["tr_1"].Status)
	assert.Len(t, nt.messages, 2, "both parties are told about the bounced payout")
}

func TestTransferPaidConfirmsEarning(t *testing.T) {
	r, store, _, _ := newTestReconciler()
	store.payments["tr_1"] = models.Payment{
		ID: 1, UserID: 1, Type: models.PaymentKindPayout, Status: models.PaymentStatePending,
		TransactionID: sql.NullString{String: "tr_1", Valid: true},
	}
	store.earnings["tr_1"] = models.Earning{
		ID: 5, WorkerID: 2, JobID: 7, Status: models.EarningStatusPending,
		TransactionID: sql.NullString{String: "tr_1", Valid: true},
	}

	require.NoError(t, deliver(t, r, EventTransferPaid, `{"id": "tr_1"}`))
	assert.Equal(t, models.PaymentStateSucceeded, store.payments["tr_1"].Status)
	assert.Equal(t, models.EarningStatusPaid, store.earnings["tr_1"].Status)
}

func TestAccountUpdatedNotifiesOnTransitionOnly(t *testing.T) {
	r, store, _, nt := newTestReconciler()
	store.users[2] = models.User{
		ID: 2, Role: models.RoleWorker,
		StripeAccountID: sql.NullString{String: "acct_w1", Valid: true},
		AccountStatus:   models.AccountIncomplete,
	}
	object := `{"id": "acct_w1", "charges_enabled": true, "payouts_enabled": true, "requirements": {"currently_due": []}}`

	require.NoError(t, deliver(t, r, EventAccountUpdated, object))
	assert.Equal(t, models.AccountActive, store.users[2].AccountStatus)
	require.Len(t, nt.messages, 1)

	// Redelivery with no transition stays silent.
	require.NoError(t, deliver(t, r, EventAccountUpdated, object))
	assert.Len(t, nt.messages, 1)
	assert.Equal(t, 1, store.statusWrites)
}

func TestAccountRestrictedNotifiesRequirements(t *testing.T) {
	r, store, _, nt := newTestReconciler()
	store.users[2] = models.User{
		ID: 2, Role: models.RoleWorker,
		StripeAccountID: sql.NullString{String: "acct_w1", Valid: true},
		AccountStatus:   models.AccountActive,
	}

	err := deliver(t, r, EventAccountUpdated,
		`{"id": "acct_w1", "charges_enabled": true, "payouts_enabled": true, "requirements": {"currently_due": ["individual.id_number"]}}`)
	require.NoError(t, err)

	assert.Equal(t, models.AccountRestricted, store.users[2].AccountStatus)
	require.Len(t, nt.messages, 1)
	assert.Contains(t, nt.messages[0], "attention")
}
