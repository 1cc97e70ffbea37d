package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"gigboard/internal/domain"
	"gigboard/internal/models"
	"gigboard/internal/moderation"
	"gigboard/internal/notify"
	"gigboard/internal/payments"
)

// Store is the slice of the ledger the orchestrator drives.
type Store interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	SetAccountStatus(ctx context.Context, userID int64, status models.AccountStatus) error

	CreateJob(ctx context.Context, job *models.Job, tasks []models.Task) error
	GetJob(ctx context.Context, jobID int64) (models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID int64, status models.JobStatus) error
	SetJobPaymentStatus(ctx context.Context, jobID int64, status models.JobPaymentStatus) error
	AssignWorker(ctx context.Context, jobID, workerID int64) error
	MarkJobCompleted(ctx context.Context, jobID int64, at time.Time) error
	UpdateJobAmounts(ctx context.Context, jobID int64, paymentAmount, serviceFee float64) error

	GetTask(ctx context.Context, taskID int64) (models.Task, error)
	ListTasks(ctx context.Context, jobID int64) ([]models.Task, error)
	CompleteTask(ctx context.Context, taskID, workerID int64, at time.Time) error
	CountIncompleteTasks(ctx context.Context, jobID int64) (int, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	LatestJobPayment(ctx context.Context, jobID int64) (models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status models.PaymentState) error

	CreateEarning(ctx context.Context, e *models.Earning) error
	GetEarningByJobWorker(ctx context.Context, jobID, workerID int64) (models.Earning, error)
	MarkEarningPaid(ctx context.Context, earningID int64, transactionID string, at time.Time) error
	UpdateEarningStatus(ctx context.Context, earningID int64, status models.EarningStatus) error
}

// Orchestrator drives the payment state machine for a job: upfront charge
// for fixed-price jobs, post-completion payout to workers, refund on
// cancellation. It sequences ledger writes and gateway calls but never wraps
// them in a cross-system transaction; the reconciler repairs crashes between
// the two.
type Orchestrator struct {
	store      Store
	gateway    payments.Gateway
	notifier   notify.Notifier
	serviceFee float64
	log        *slog.Logger
	now        func() time.Time
}

// New constructs an Orchestrator. serviceFee is the flat platform fee in
// dollars.
func New(store Store, gateway payments.Gateway, notifier notify.Notifier, serviceFee float64, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		gateway:    gateway,
		notifier:   notifier,
		serviceFee: serviceFee,
		log:        log,
		now:        time.Now,
	}
}

// Cents converts a dollar amount to integer cents for the gateway.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateJobInput is the request to post a new job.
type CreateJobInput struct {
	Title       string
	Description string
	Category    string
	PaymentType models.PaymentType
	Amount      float64
	DateNeeded  *time.Time
	Tasks       []string

	// PaymentMethodID triggers an immediate upfront charge for fixed-price
	// jobs. Optional: the poster can pay later via PayJob.
	PaymentMethodID string
}

// CreateJob validates content and amount, persists the job with its tasks
// and, for fixed-price jobs with a payment method, charges the poster
// upfront. A failed charge does NOT roll the job back: the job stays
// open/unpaid and the error is returned alongside it so the poster can
// retry payment separately.
func (o *Orchestrator) CreateJob(ctx context.Context, posterID int64, in CreateJobInput) (models.Job, error) {
	if err := moderation.CheckJobContent(in.Title, in.Description); err != nil {
		return models.Job{}, err
	}
	if err := moderation.CheckAmount(in.Amount); err != nil {
		return models.Job{}, err
	}
	if in.PaymentType != models.PaymentTypeFixed && in.PaymentType != models.PaymentTypeHourly {
		return models.Job{}, domain.NewValidationError("paymentType must be %q or %q", models.PaymentTypeFixed, models.PaymentTypeHourly)
	}

	poster, err := o.store.GetUser(ctx, posterID)
	if err != nil {
		return models.Job{}, err
	}

	job := models.Job{
		PosterID:      poster.ID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		PaymentType:   in.PaymentType,
		PaymentAmount: in.Amount,
		Status:        models.JobStatusOpen,
		PaymentStatus: models.JobPaymentUnpaid,
	}
	// Fixed-price jobs carry the fee from creation; hourly jobs get it
	// added at settlement.
	if in.PaymentType == models.PaymentTypeFixed {
		job.ServiceFee = o.serviceFee
	}
	job.TotalAmount = job.PaymentAmount + job.ServiceFee
	if in.DateNeeded != nil {
		job.DateNeeded = sql.NullTime{Time: *in.DateNeeded, Valid: true}
	}

	tasks := make([]models.Task, 0, len(in.Tasks))
	for _, desc := range in.Tasks {
		tasks = append(tasks, models.Task{Description: desc})
	}

	if err := o.store.CreateJob(ctx, &job, tasks); err != nil {
		return models.Job{}, err
	}

	if in.PaymentType == models.PaymentTypeFixed && in.PaymentMethodID != "" {
		if err := o.chargeJob(ctx, &job, poster, in.PaymentMethodID); err != nil {
			o.log.Warn("upfront charge failed, job kept for retry",
				"job_id", job.ID, "error", err)
			return job, err
		}
	}
	return job, nil
}

// PayJob is the retry-payment path for a job whose upfront charge failed or
// was never attempted.
func (o *Orchestrator) PayJob(ctx context.Context, posterID, jobID int64, paymentMethodID string) (models.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return models.Job{}, err
	}
	if job.PosterID != posterID {
		return models.Job{}, domain.NewAuthorizationError("only the poster may pay for this job")
	}
	if job.PaymentType != models.PaymentTypeFixed {
		return models.Job{}, domain.NewValidationError("hourly jobs are settled after completion")
	}
	switch job.PaymentStatus {
	case models.JobPaymentUnpaid, models.JobPaymentFailed:
	default:
		return models.Job{}, domain.NewValidationError("job payment is already %s", job.PaymentStatus)
	}
	if err := moderation.CheckAmount(job.PaymentAmount); err != nil {
		return models.Job{}, err
	}

	poster, err := o.store.GetUser(ctx, posterID)
	if err != nil {
		return models.Job{}, err
	}
	if err := o.chargeJob(ctx, &job, poster, paymentMethodID); err != nil {
		return job, err
	}
	return job, nil
}

// chargeJob runs the upfront charge for a fixed-price job and records the
// outcome. The ledger write happens after the gateway call; a crash in
// between is repaired by the reconciler from the charge's job_id metadata.
func (o *Orchestrator) chargeJob(ctx context.Context, job *models.Job, poster models.User, paymentMethodID string) error {
	customerID, err := o.gateway.EnsureCustomer(ctx, poster.ID)
	if err != nil {
		return err
	}

	res, err := o.gateway.CreateCharge(ctx, payments.ChargeParams{
		CustomerID:      customerID,
		PaymentMethodID: paymentMethodID,
		AmountCents:     Cents(job.TotalAmount),
		Description:     fmt.Sprintf("Job #%d: %s", job.ID, job.Title),
		CaptureNow:      true,
		Metadata:        o.jobMetadata(job),
	})
	if err != nil {
		// The job survives: open/unpaid, payable again.
		return err
	}

	payment := models.Payment{
		UserID:           poster.ID,
		JobID:            sql.NullInt64{Int64: job.ID, Valid: true},
		Amount:           job.PaymentAmount,
		ServiceFee:       job.ServiceFee,
		Type:             models.PaymentKindJobPayment,
		Status:           chargeState(res.Status),
		TransactionID:    sql.NullString{String: res.ID, Valid: true},
		StripeCustomerID: sql.NullString{String: customerID, Valid: true},
	}
	if err := o.store.CreatePayment(ctx, &payment); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// The reconciler got there first via webhook. Not an error.
			o.log.Info("payment already recorded by reconciler", "transaction_id", res.ID)
		} else {
			return err
		}
	}

	status := models.JobPaymentPending
	if payment.Status == models.PaymentStateSucceeded {
		status = models.JobPaymentPaid
	}
	if err := o.store.SetJobPaymentStatus(ctx, job.ID, status); err != nil {
		return err
	}
	job.PaymentStatus = status
	return nil
}

// AcceptApplication assigns a worker to an open job. No money moves.
func (o *Orchestrator) AcceptApplication(ctx context.Context, posterID, jobID, workerID int64) (models.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return models.Job{}, err
	}
	if job.PosterID != posterID {
		return models.Job{}, domain.NewAuthorizationError("only the poster may accept applications")
	}
	if job.Status != models.JobStatusOpen {
		return models.Job{}, domain.NewValidationError("job is %s, applications can only be accepted while open", job.Status)
	}

	worker, err := o.store.GetUser(ctx, workerID)
	if err != nil {
		return models.Job{}, err
	}
	if err := o.store.AssignWorker(ctx, jobID, worker.ID); err != nil {
		return models.Job{}, err
	}
	job.WorkerID = sql.NullInt64{Int64: worker.ID, Valid: true}
	job.Status = models.JobStatusAssigned

	o.notify(ctx, worker, fmt.Sprintf("You have been hired for job #%d: %s", job.ID, job.Title))
	return job, nil
}

// CompleteTask marks a single task done by the assigned worker. Completing
// an already-completed task is a no-op.
func (o *Orchestrator) CompleteTask(ctx context.Context, workerID, taskID int64) (models.Task, error) {
	task, err := o.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	job, err := o.store.GetJob(ctx, task.JobID)
	if err != nil {
		return models.Task{}, err
	}
	if !job.WorkerID.Valid || job.WorkerID.Int64 != workerID {
		return models.Task{}, domain.NewAuthorizationError("only the assigned worker may complete tasks")
	}
	if task.IsCompleted {
		return task, nil
	}

	now := o.now()
	if err := o.store.CompleteTask(ctx, taskID, workerID, now); err != nil {
		return models.Task{}, err
	}
	if job.Status == models.JobStatusAssigned {
		if err := o.store.UpdateJobStatus(ctx, job.ID, models.JobStatusInProgress); err != nil {
			return models.Task{}, err
		}
	}

	task.IsCompleted = true
	task.CompletedBy = sql.NullInt64{Int64: workerID, Valid: true}
	task.CompletedAt = sql.NullTime{Time: now, Valid: true}
	return task, nil
}

// CompleteJob marks the job done once every task is complete, then settles
// the worker's earning. A payout failure never blocks the completion.
func (o *Orchestrator) CompleteJob(ctx context.Context, workerID, jobID int64) (models.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return models.Job{}, err
	}
	if !job.WorkerID.Valid || job.WorkerID.Int64 != workerID {
		return models.Job{}, domain.NewAuthorizationError("only the assigned worker may complete this job")
	}
	if job.Status == models.JobStatusCancelled {
		return models.Job{}, domain.NewValidationError("job is cancelled")
	}
	remaining, err := o.store.CountIncompleteTasks(ctx, jobID)
	if err != nil {
		return models.Job{}, err
	}
	if remaining > 0 {
		return models.Job{}, domain.NewValidationError(
			"all tasks must be completed first (%d remaining)", remaining)
	}

	if job.Status != models.JobStatusCompleted && job.Status != models.JobStatusPaid {
		if err := o.store.MarkJobCompleted(ctx, jobID, o.now()); err != nil {
			return models.Job{}, err
		}
		job.Status = models.JobStatusCompleted
		job.CompletedAt = sql.NullTime{Time: o.now(), Valid: true}
	}

	if err := o.EnsureEarningAndPayout(ctx, job); err != nil {
		return models.Job{}, err
	}
	return o.store.GetJob(ctx, jobID)
}

// EnsureEarningAndPayout creates the worker's earning for a completed job if
// none exists yet and attempts the payout. Safe to call repeatedly, whether
// from a duplicate completion request or a redelivered webhook: the earning
// lookup and the unique (job, worker) constraint make creation happen at
// most once.
func (o *Orchestrator) EnsureEarningAndPayout(ctx context.Context, job models.Job) error {
	if !job.WorkerID.Valid {
		return nil
	}
	worker, err := o.store.GetUser(ctx, job.WorkerID.Int64)
	if err != nil {
		return err
	}

	earning, err := o.store.GetEarningByJobWorker(ctx, job.ID, worker.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		earning, err = o.createEarning(ctx, job, worker)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if earning.Status == models.EarningStatusPaid {
		return nil
	}

	if !worker.StripeAccountID.Valid || worker.StripeAccountID.String == "" {
		o.notify(ctx, worker, fmt.Sprintf(
			"You earned $%.2f for job #%d. Set up your payout account to receive it.",
			earning.NetAmount, job.ID))
		return nil
	}

	return o.payOut(ctx, job, worker, earning)
}

func (o *Orchestrator) createEarning(ctx context.Context, job models.Job, worker models.User) (models.Earning, error) {
	amount := job.PaymentAmount
	tasks, err := o.store.ListTasks(ctx, job.ID)
	if err != nil {
		return models.Earning{}, err
	}
	for _, t := range tasks {
		amount += t.BonusAmount
	}

	fee := job.ServiceFee
	if job.PaymentType == models.PaymentTypeHourly {
		fee = o.serviceFee
	}

	earning := models.Earning{
		WorkerID:   worker.ID,
		JobID:      job.ID,
		Amount:     amount,
		ServiceFee: fee,
		NetAmount:  amount - fee,
		Status:     models.EarningStatusPending,
	}
	if err := o.store.CreateEarning(ctx, &earning); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Lost a race with a concurrent completion or webhook; the
			// existing row wins.
			return o.store.GetEarningByJobWorker(ctx, job.ID, worker.ID)
		}
		return models.Earning{}, err
	}
	return earning, nil
}

// payOut moves the worker's net amount. Fixed-price jobs transfer the
// already-captured funds; hourly jobs settle with a destination charge on
// the poster (fee added here). A gateway failure leaves the earning pending
// and notifies both parties; it is not retried automatically.
func (o *Orchestrator) payOut(ctx context.Context, job models.Job, worker models.User, earning models.Earning) error {
	var (
		txnID string
		state models.PaymentState
		kind  models.PaymentKind
		pErr  error
	)

	switch job.PaymentType {
	case models.PaymentTypeHourly:
		poster, err := o.store.GetUser(ctx, job.PosterID)
		if err != nil {
			return err
		}
		customerID, err := o.gateway.EnsureCustomer(ctx, poster.ID)
		if err != nil {
			pErr = err
			break
		}
		totalCents := Cents(earning.Amount + earning.ServiceFee)
		res, err := o.gateway.CreateCharge(ctx, payments.ChargeParams{
			CustomerID:           customerID,
			AmountCents:          totalCents,
			Description:          fmt.Sprintf("Settlement for job #%d: %s", job.ID, job.Title),
			CaptureNow:           true,
			DestinationAccountID: worker.StripeAccountID.String,
			ApplicationFeeCents:  totalCents - Cents(earning.NetAmount),
			Metadata:             o.jobMetadata(&job),
		})
		if err != nil {
			pErr = err
			break
		}
		txnID, state, kind = res.ID, chargeState(res.Status), models.PaymentKindWorkerPayment
	default:
		res, err := o.gateway.CreateTransfer(ctx, worker.StripeAccountID.String, Cents(earning.NetAmount), o.jobMetadata(&job))
		if err != nil {
			pErr = err
			break
		}
		txnID, state, kind = res.ID, models.PaymentStatePending, models.PaymentKindPayout
	}

	if pErr != nil {
		o.log.Error("payout failed, earning left pending",
			"job_id", job.ID, "worker_id", worker.ID, "error", pErr)
		o.notifyJobParties(ctx, job, fmt.Sprintf(
			"Payout for job #%d could not be processed. Our team will resolve it; no action is lost.", job.ID))
		return nil
	}

	payment := models.Payment{
		UserID:                 job.PosterID,
		WorkerID:               sql.NullInt64{Int64: worker.ID, Valid: true},
		JobID:                  sql.NullInt64{Int64: job.ID, Valid: true},
		Amount:                 earning.NetAmount,
		ServiceFee:             earning.ServiceFee,
		Type:                   kind,
		Status:                 state,
		TransactionID:          sql.NullString{String: txnID, Valid: true},
		StripeConnectAccountID: worker.StripeAccountID,
	}
	if err := o.store.CreatePayment(ctx, &payment); err != nil && !errors.Is(err, domain.ErrDuplicate) {
		return err
	}

	if err := o.store.MarkEarningPaid(ctx, earning.ID, txnID, o.now()); err != nil {
		return err
	}
	if err := o.store.UpdateJobStatus(ctx, job.ID, models.JobStatusPaid); err != nil {
		return err
	}
	if job.PaymentType == models.PaymentTypeHourly && state == models.PaymentStateSucceeded {
		if err := o.store.SetJobPaymentStatus(ctx, job.ID, models.JobPaymentPaid); err != nil {
			return err
		}
		// The settlement fee now exists; reflect it in the job's totals.
		if err := o.store.UpdateJobAmounts(ctx, job.ID, job.PaymentAmount, earning.ServiceFee); err != nil {
			return err
		}
	}

	o.notify(ctx, worker, fmt.Sprintf("You've been paid $%.2f for job #%d.", earning.NetAmount, job.ID))
	return nil
}

// CancelJob cancels a job on behalf of its poster, refunding the most
// recent charge when requested. Cancellation never depends on the refund
// outcome: a gateway failure is logged and reported, the job is cancelled
// regardless.
func (o *Orchestrator) CancelJob(ctx context.Context, posterID, jobID int64, withRefund bool) (bool, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.PosterID != posterID {
		return false, domain.NewAuthorizationError("only the poster may cancel this job")
	}
	if job.Status == models.JobStatusPaid {
		return false, domain.NewAuthorizationError("the worker has already been paid out")
	}
	if job.WorkerID.Valid {
		if earning, err := o.store.GetEarningByJobWorker(ctx, job.ID, job.WorkerID.Int64); err == nil {
			if earning.Status == models.EarningStatusPaid {
				return false, domain.NewAuthorizationError("the worker has already been paid out")
			}
			if earning.Status == models.EarningStatusPending {
				if err := o.store.UpdateEarningStatus(ctx, earning.ID, models.EarningStatusCancelled); err != nil {
					return false, err
				}
			}
		}
	}

	refundProcessed := false
	if withRefund {
		refundProcessed = o.tryRefund(ctx, job)
	}

	if err := o.store.UpdateJobStatus(ctx, jobID, models.JobStatusCancelled); err != nil {
		return refundProcessed, err
	}

	if job.WorkerID.Valid {
		if worker, err := o.store.GetUser(ctx, job.WorkerID.Int64); err == nil {
			o.notify(ctx, worker, fmt.Sprintf("Job #%d (%s) was cancelled by the poster.", job.ID, job.Title))
		}
	}
	return refundProcessed, nil
}

func (o *Orchestrator) tryRefund(ctx context.Context, job models.Job) bool {
	payment, err := o.store.LatestJobPayment(ctx, job.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			o.log.Error("refund lookup failed", "job_id", job.ID, "error", err)
		}
		return false
	}
	if !payment.TransactionID.Valid || payment.TransactionID.String == "" {
		return false
	}

	res, err := o.gateway.Refund(ctx, payment.TransactionID.String)
	if err != nil {
		// Logged, not fatal: cancellation proceeds without the refund.
		o.log.Error("refund failed", "job_id", job.ID,
			"transaction_id", payment.TransactionID.String, "error", err)
		return false
	}

	refund := models.Payment{
		UserID:        job.PosterID,
		JobID:         sql.NullInt64{Int64: job.ID, Valid: true},
		Amount:        payment.Amount,
		ServiceFee:    payment.ServiceFee,
		Type:          models.PaymentKindRefund,
		Status:        chargeState(res.Status),
		TransactionID: sql.NullString{String: res.ID, Valid: true},
	}
	if err := o.store.CreatePayment(ctx, &refund); err != nil && !errors.Is(err, domain.ErrDuplicate) {
		o.log.Error("refund record failed", "job_id", job.ID, "error", err)
	}
	if err := o.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStateRefunded); err != nil {
		o.log.Error("payment status update failed", "payment_id", payment.ID, "error", err)
	}
	if err := o.store.SetJobPaymentStatus(ctx, job.ID, models.JobPaymentRefunded); err != nil {
		o.log.Error("job payment status update failed", "job_id", job.ID, "error", err)
	}
	return true
}

// AccountOverview is the connected-account status report for a worker.
type AccountOverview struct {
	Exists          bool                 `json:"exists"`
	AccountStatus   models.AccountStatus `json:"accountStatus"`
	ChargesEnabled  bool                 `json:"chargesEnabled"`
	PayoutsEnabled  bool                 `json:"payoutsEnabled"`
	RequirementsDue []string             `json:"requirementsDue"`
	OnboardingURL   string               `json:"onboardingUrl,omitempty"`
}

// ConnectedAccountStatus queries the live capability state of the user's
// payout account and persists the derived status.
func (o *Orchestrator) ConnectedAccountStatus(ctx context.Context, userID int64) (AccountOverview, error) {
	user, err := o.store.GetUser(ctx, userID)
	if err != nil {
		return AccountOverview{}, err
	}
	if !user.StripeAccountID.Valid || user.StripeAccountID.String == "" {
		return AccountOverview{Exists: false, AccountStatus: models.AccountNone, RequirementsDue: []string{}}, nil
	}

	state, err := o.gateway.GetConnectedAccountStatus(ctx, user.StripeAccountID.String)
	if err != nil {
		return AccountOverview{}, err
	}
	status := payments.DeriveAccountStatus(state)
	if status != user.AccountStatus {
		if err := o.store.SetAccountStatus(ctx, user.ID, status); err != nil {
			return AccountOverview{}, err
		}
	}

	overview := AccountOverview{
		Exists:          true,
		AccountStatus:   status,
		ChargesEnabled:  state.ChargesEnabled,
		PayoutsEnabled:  state.PayoutsEnabled,
		RequirementsDue: state.RequirementsDue,
	}
	if status != models.AccountActive {
		if link, err := o.gateway.OnboardingLink(ctx, user.StripeAccountID.String); err == nil {
			overview.OnboardingURL = link
		}
	}
	return overview, nil
}

// EnsureConnectedAccount creates the user's payout account on first use and
// returns a fresh onboarding link.
func (o *Orchestrator) EnsureConnectedAccount(ctx context.Context, userID int64) (string, string, error) {
	user, err := o.store.GetUser(ctx, userID)
	if err != nil {
		return "", "", err
	}
	accountID, err := o.gateway.EnsureConnectedAccount(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if user.AccountStatus == models.AccountNone || user.AccountStatus == "" {
		if err := o.store.SetAccountStatus(ctx, userID, models.AccountIncomplete); err != nil {
			return "", "", err
		}
	}
	link, err := o.gateway.OnboardingLink(ctx, accountID)
	if err != nil {
		return accountID, "", err
	}
	return accountID, link, nil
}

func (o *Orchestrator) jobMetadata(job *models.Job) map[string]string {
	md := map[string]string{
		"job_id":    strconv.FormatInt(job.ID, 10),
		"poster_id": strconv.FormatInt(job.PosterID, 10),
	}
	if job.WorkerID.Valid {
		md["worker_id"] = strconv.FormatInt(job.WorkerID.Int64, 10)
	}
	return md
}

func (o *Orchestrator) notify(ctx context.Context, user models.User, message string) {
	if err := o.notifier.Notify(ctx, user, message); err != nil {
		o.log.Warn("notification failed", "user_id", user.ID, "error", err)
	}
}

func (o *Orchestrator) notifyJobParties(ctx context.Context, job models.Job, message string) {
	if poster, err := o.store.GetUser(ctx, job.PosterID); err == nil {
		o.notify(ctx, poster, message)
	}
	if job.WorkerID.Valid {
		if worker, err := o.store.GetUser(ctx, job.WorkerID.Int64); err == nil {
			o.notify(ctx, worker, message)
		}
	}
}

// chargeState maps a processor charge status onto the ledger's payment
// state vocabulary.
func chargeState(status string) models.PaymentState {
	switch status {
	case "succeeded":
		return models.PaymentStateSucceeded
	case "canceled":
		return models.PaymentStateCanceled
	case "requires_payment_method", "failed":
		return models.PaymentStateFailed
	default:
		return models.PaymentStatePending
	}
}
