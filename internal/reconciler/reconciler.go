package reconciler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gigboard/internal/domain"
	"gigboard/internal/models"
	"gigboard/internal/notify"
	"gigboard/internal/payments"
)

// Store is the slice of the ledger the reconciler reads and repairs.
type Store interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	GetUserByStripeAccount(ctx context.Context, accountID string) (models.User, error)
	SetAccountStatus(ctx context.Context, userID int64, status models.AccountStatus) error

	GetJob(ctx context.Context, jobID int64) (models.Job, error)
	SetJobPaymentStatus(ctx context.Context, jobID int64, status models.JobPaymentStatus) error

	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (models.Payment, error)
	UpdatePaymentStatusByTransactionID(ctx context.Context, transactionID string, status models.PaymentState) error

	GetEarningByTransactionID(ctx context.Context, transactionID string) (models.Earning, error)
	MarkEarningPaid(ctx context.Context, earningID int64, transactionID string, at time.Time) error
	UpdateEarningStatus(ctx context.Context, earningID int64, status models.EarningStatus) error
}

// Settler triggers the payout path for a job whose funds just cleared. The
// orchestrator provides it; the indirection keeps webhook handling free of
// charge-creation logic.
type Settler interface {
	EnsureEarningAndPayout(ctx context.Context, job models.Job) error
}

// Reconciler applies asynchronous processor events to the ledger. Every
// handler is idempotent: the processor redelivers events at least once, so
// applying the same event twice must change nothing the second time.
type Reconciler struct {
	secret   string
	store    Store
	settler  Settler
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time

	handlers map[string]func(ctx context.Context, object []byte) error
}

// New wires the reconciler. secret is the webhook endpoint secret used to
// verify signatures.
func New(secret string, store Store, settler Settler, notifier notify.Notifier, log *slog.Logger) *Reconciler {
	r := &Reconciler{
		secret:   secret,
		store:    store,
		settler:  settler,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
	r.handlers = map[string]func(ctx context.Context, object []byte) error{
		EventPaymentSucceeded: decode(r.handlePaymentSucceeded),
		EventPaymentFailed:    decode(r.handlePaymentFailed),
		EventChargeRefunded:   decode(r.handleChargeRefunded),
		EventTransferCreated:  decode(r.handleTransferCreated),
		EventTransferPaid:     decode(r.handleTransferPaid),
		EventTransferFailed:   decode(r.handleTransferFailed),
		EventAccountUpdated:   decode(r.handleAccountUpdated),
	}
	return r
}

// Process verifies, parses and dispatches one raw webhook delivery.
// Signature errors come back as ErrBadSignature/ErrStaleSignature; unknown
// event types are logged and acknowledged.
func (r *Reconciler) Process(ctx context.Context, body []byte, signatureHeader string) error {
	if err := VerifySignature(r.secret, body, signatureHeader, r.now()); err != nil {
		return err
	}
	event, err := ParseEvent(body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadSignature, "malformed event body")
	}

	handler, ok := r.handlers[event.Type]
	if !ok {
		r.log.Debug("unhandled event type acknowledged", "event_id", event.ID, "type", event.Type)
		return nil
	}
	r.log.Info("processing event", "event_id", event.ID, "type", event.Type)
	return handler(ctx, event.Data.Object)
}

// decode adapts a typed handler to the raw dispatch table.
func decode[T any](fn func(ctx context.Context, obj T) error) func(ctx context.Context, object []byte) error {
	return func(ctx context.Context, object []byte) error {
		var obj T
		if err := unmarshalObject(object, &obj); err != nil {
			return err
		}
		return fn(ctx, obj)
	}
}

func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, obj paymentIntentObject) error {
	payment, err := r.store.GetPaymentByTransactionID(ctx, obj.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		created, cerr := r.adoptOrphanedCharge(ctx, obj, models.PaymentStateSucceeded)
		if cerr != nil || !created {
			return cerr
		}
		payment, err = r.store.GetPaymentByTransactionID(ctx, obj.ID)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	// Redelivery of a state we already hold is a no-op, and a refund is
	// never rolled back by a late success.
	switch payment.Status {
	case models.PaymentStateSucceeded,
		models.PaymentStateRefunded, models.PaymentStatePartialRefunded:
	default:
		if err := r.store.UpdatePaymentStatusByTransactionID(ctx, obj.ID, models.PaymentStateSucceeded); err != nil {
			return err
		}
	}

	if payment.Type != models.PaymentKindJobPayment || !payment.JobID.Valid {
		return nil
	}
	job, err := r.store.GetJob(ctx, payment.JobID.Int64)
	if err != nil {
		return err
	}
	if job.PaymentStatus != models.JobPaymentPaid && job.PaymentStatus != models.JobPaymentRefunded {
		if err := r.store.SetJobPaymentStatus(ctx, job.ID, models.JobPaymentPaid); err != nil {
			return err
		}
	}
	// Funds cleared after the work was already finished: run the payout now.
	if job.Status == models.JobStatusCompleted {
		return r.settler.EnsureEarningAndPayout(ctx, job)
	}
	return nil
}

func (r *Reconciler) handlePaymentFailed(ctx context.Context, obj paymentIntentObject) error {
	payment, err := r.store.GetPaymentByTransactionID(ctx, obj.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if _, cerr := r.adoptOrphanedCharge(ctx, obj, models.PaymentStateFailed); cerr != nil {
			return cerr
		}
		payment, err = r.store.GetPaymentByTransactionID(ctx, obj.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if !payment.Status.IsTerminal() {
		if err := r.store.UpdatePaymentStatusByTransactionID(ctx, obj.ID, models.PaymentStateFailed); err != nil {
			return err
		}
	}
	if payment.Type != models.PaymentKindJobPayment || !payment.JobID.Valid {
		return nil
	}
	// The job stays payable: the poster retries with another method.
	if err := r.store.SetJobPaymentStatus(ctx, payment.JobID.Int64, models.JobPaymentFailed); err != nil {
		return err
	}
	if poster, perr := r.store.GetUser(ctx, payment.UserID); perr == nil {
		r.notify(ctx, poster, fmt.Sprintf(
			"Payment for job #%d failed. Please try a different payment method.", payment.JobID.Int64))
	}
	return nil
}

// adoptOrphanedCharge records a charge the ledger has no row for, using the
// job metadata stamped onto the charge at creation. Happens when the process
// died between the gateway call and the ledger write. Returns false when the
// metadata is insufficient to attach the charge.
func (r *Reconciler) adoptOrphanedCharge(ctx context.Context, obj paymentIntentObject, state models.PaymentState) (bool, error) {
	jobID, ok := metadataID(obj.Metadata, "job_id")
	if !ok {
		r.log.Warn("charge event without job metadata dropped", "transaction_id", obj.ID)
		return false, nil
	}
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Redelivery cannot fix a dangling job reference; acknowledge
			// and leave a trace for manual review.
			conflict := &domain.ReconciliationConflict{
				TransactionID: obj.ID,
				Message:       fmt.Sprintf("charge references unknown job %d", jobID),
			}
			r.log.Error("reconciliation conflict", "error", conflict)
			return false, nil
		}
		return false, err
	}

	payment := models.Payment{
		UserID:        job.PosterID,
		JobID:         sql.NullInt64{Int64: job.ID, Valid: true},
		Amount:        job.PaymentAmount,
		ServiceFee:    job.ServiceFee,
		Type:          models.PaymentKindJobPayment,
		Status:        state,
		TransactionID: sql.NullString{String: obj.ID, Valid: true},
	}
	if obj.Customer != "" {
		payment.StripeCustomerID = sql.NullString{String: obj.Customer, Valid: true}
	}
	if err := r.store.CreatePayment(ctx, &payment); err != nil {
		// A concurrent delivery inserted it first. Fine.
		if errors.Is(err, domain.ErrDuplicate) {
			return true, nil
		}
		return false, err
	}
	r.log.Info("orphaned charge adopted into ledger",
		"transaction_id", obj.ID, "job_id", job.ID, "status", state)
	return true, nil
}

func (r *Reconciler) handleChargeRefunded(ctx context.Context, obj chargeObject) error {
	txnID := obj.PaymentIntent
	if txnID == "" {
		txnID = obj.ID
	}
	payment, err := r.store.GetPaymentByTransactionID(ctx, txnID)
	if errors.Is(err, domain.ErrNotFound) {
		r.log.Warn("refund event for unknown transaction acknowledged", "transaction_id", txnID)
		return nil
	}
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentStateRefunded {
		return nil
	}
	if err := r.store.UpdatePaymentStatusByTransactionID(ctx, txnID, models.PaymentStateRefunded); err != nil {
		return err
	}
	if payment.JobID.Valid {
		if err := r.store.SetJobPaymentStatus(ctx, payment.JobID.Int64, models.JobPaymentRefunded); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) handleTransferCreated(ctx context.Context, obj transferObject) error {
	_, err := r.store.GetPaymentByTransactionID(ctx, obj.ID)
	if errors.Is(err, domain.ErrNotFound) {
		r.log.Warn("transfer.created for unknown transaction", "transaction_id", obj.ID)
		return nil
	}
	return err
}

func (r *Reconciler) handleTransferPaid(ctx context.Context, obj transferObject) error {
	if err := r.store.UpdatePaymentStatusByTransactionID(ctx, obj.ID, models.PaymentStateSucceeded); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.log.Warn("transfer.paid for unknown transaction acknowledged", "transaction_id", obj.ID)
			return nil
		}
		return err
	}
	earning, err := r.store.GetEarningByTransactionID(ctx, obj.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if earning.Status != models.EarningStatusPaid {
		return r.store.MarkEarningPaid(ctx, earning.ID, obj.ID, r.now())
	}
	return nil
}

func (r *Reconciler) handleTransferFailed(ctx context.Context, obj transferObject) error {
	if err := r.store.UpdatePaymentStatusByTransactionID(ctx, obj.ID, models.PaymentStateFailed); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.log.Warn("transfer.failed for unknown transaction acknowledged", "transaction_id", obj.ID)
			return nil
		}
		return err
	}
	earning, err := r.store.GetEarningByTransactionID(ctx, obj.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	// The money bounced after we marked the earning paid; pull it back to
	// pending for manual remediation.
	if err := r.store.UpdateEarningStatus(ctx, earning.ID, models.EarningStatusPending); err != nil {
		return err
	}
	job, err := r.store.GetJob(ctx, earning.JobID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Payout for job #%d was returned by the bank. Our team is on it.", job.ID)
	if worker, werr := r.store.GetUser(ctx, earning.WorkerID); werr == nil {
		r.notify(ctx, worker, msg)
	}
	if poster, perr := r.store.GetUser(ctx, job.PosterID); perr == nil {
		r.notify(ctx, poster, msg)
	}
	return nil
}

func (r *Reconciler) handleAccountUpdated(ctx context.Context, obj accountObject) error {
	user, err := r.store.GetUserByStripeAccount(ctx, obj.ID)
	if errors.Is(err, domain.ErrNotFound) {
		r.log.Warn("account.updated for unknown account acknowledged", "account_id", obj.ID)
		return nil
	}
	if err != nil {
		return err
	}

	status := payments.DeriveAccountStatus(payments.AccountState{
		ChargesEnabled:  obj.ChargesEnabled,
		PayoutsEnabled:  obj.PayoutsEnabled,
		RequirementsDue: obj.Requirements.CurrentlyDue,
	})
	if status == user.AccountStatus {
		return nil
	}
	if err := r.store.SetAccountStatus(ctx, user.ID, status); err != nil {
		return err
	}

	// Notify only on a transition the user can act on or celebrate.
	switch status {
	case models.AccountActive:
		r.notify(ctx, user, "Your payout account is active. Earnings will be paid out automatically.")
	case models.AccountRestricted, models.AccountIncomplete:
		if len(obj.Requirements.CurrentlyDue) > 0 {
			r.notify(ctx, user, "Your payout account needs attention: additional information is required.")
		}
	}
	return nil
}

func (r *Reconciler) notify(ctx context.Context, user models.User, message string) {
	if err := r.notifier.Notify(ctx, user, message); err != nil {
		r.log.Warn("notification failed", "user_id", user.ID, "error", err)
	}
}

func metadataID(md map[string]string, key string) (int64, bool) {
	raw, ok := md[key]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
