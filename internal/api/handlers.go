package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gigboard/internal/domain"
	"gigboard/internal/models"
	"gigboard/internal/orchestrator"
)

// JobService is the orchestrator surface the HTTP layer drives.
type JobService interface {
	CreateJob(ctx context.Context, posterID int64, in orchestrator.CreateJobInput) (models.Job, error)
	PayJob(ctx context.Context, posterID, jobID int64, paymentMethodID string) (models.Job, error)
	AcceptApplication(ctx context.Context, posterID, jobID, workerID int64) (models.Job, error)
	CompleteTask(ctx context.Context, workerID, taskID int64) (models.Task, error)
	CompleteJob(ctx context.Context, workerID, jobID int64) (models.Job, error)
	CancelJob(ctx context.Context, posterID, jobID int64, withRefund bool) (bool, error)
	ConnectedAccountStatus(ctx context.Context, userID int64) (orchestrator.AccountOverview, error)
	EnsureConnectedAccount(ctx context.Context, userID int64) (string, string, error)
}

// Ledger is the read-only store surface for plain queries.
type Ledger interface {
	GetJob(ctx context.Context, jobID int64) (models.Job, error)
	ListTasks(ctx context.Context, jobID int64) ([]models.Task, error)
	ListJobsByPoster(ctx context.Context, posterID int64) ([]models.Job, error)
	ListEarningsByWorker(ctx context.Context, workerID int64) ([]models.Earning, error)
	ListPaymentsByUser(ctx context.Context, userID int64) ([]models.Payment, error)
}

// WebhookProcessor verifies and applies one raw processor event.
type WebhookProcessor interface {
	Process(ctx context.Context, body []byte, signatureHeader string) error
}

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	jobs    JobService
	ledger  Ledger
	webhook WebhookProcessor
	log     *slog.Logger
}

// NewHandler wires the endpoint dependencies.
func NewHandler(jobs JobService, ledger Ledger, webhook WebhookProcessor, log *slog.Logger) *Handler {
	return &Handler{jobs: jobs, ledger: ledger, webhook: webhook, log: log}
}

type jsonResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Data: data})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		authz      *domain.AuthorizationError
		rejected   *domain.GatewayRejected
		transient  *domain.GatewayError
	)
	switch {
	case errors.As(err, &validation):
		writeJSONError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &authz):
		writeJSONError(w, http.StatusForbidden, authz.Error())
	case errors.As(err, &rejected):
		writeJSONError(w, http.StatusPaymentRequired, rejected.Error())
	case errors.As(err, &transient):
		h.log.Error("gateway failure", "error", err)
		writeJSONError(w, http.StatusBadGateway, "payment provider is unavailable, try again")
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicate):
		writeJSONError(w, http.StatusConflict, "already exists")
	default:
		h.log.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(out); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type createJobRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	PaymentType     string     `json:"paymentType"`
	Amount          float64    `json:"amount"`
	DateNeeded      *time.Time `json:"dateNeeded,omitempty"`
	Tasks           []string   `json:"tasks,omitempty"`
	PaymentMethodID string     `json:"paymentMethodId,omitempty"`
}

// CreateJob posts a job and, for fixed-price jobs with a payment method,
// charges the poster. A failed charge still answers with the created job so
// the client can offer a retry.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	var req createJobRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), user.ID, orchestrator.CreateJobInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		PaymentType:     models.PaymentType(req.PaymentType),
		Amount:          req.Amount,
		DateNeeded:      req.DateNeeded,
		Tasks:           req.Tasks,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		if job.ID != 0 {
			// Job persisted, charge declined: report both.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: err.Error(), Data: job})
			return
		}
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusCreated, job)
}

type payJobRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

func (h *Handler) PayJob(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	jobID, err := urlID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req payJobRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := h.jobs.PayJob(r.Context(), user.ID, jobID, req.PaymentMethodID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, job)
}

type acceptRequest struct {
	WorkerID int64 `json:"workerId"`
}

func (h *Handler) AcceptApplication(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	jobID, err := urlID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req acceptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := h.jobs.AcceptApplication(r.Context(), user.ID, jobID, req.WorkerID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, job)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	taskID, err := urlID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.jobs.CompleteTask(r.Context(), user.ID, taskID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, task)
}

func (h *Handler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	jobID, err := urlID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobs.CompleteJob(r.Context(), user.ID, jobID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, job)
}

type cancelRequest struct {
	WithRefund bool `json:"withRefund"`
}

type cancelResponse struct {
	Cancelled       bool `json:"cancelled"`
	RefundProcessed bool `json:"refundProcessed"`
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	jobID, err := urlID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req cancelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	refunded, err := h.jobs.CancelJob(r.Context(), user.ID, jobID, req.WithRefund)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, cancelResponse{Cancelled: true, RefundProcessed: refunded})
}

type jobDetails struct {
	models.Job
	Tasks []models.Task `json:"tasks"`
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := urlID(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.ledger.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	tasks, err := h.ledger.ListTasks(r.Context(), jobID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, jobDetails{Job: job, Tasks: tasks})
}

func (h *Handler) ListMyJobs(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	jobs, err := h.ledger.ListJobsByPoster(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, jobs)
}

func (h *Handler) ListMyEarnings(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	earnings, err := h.ledger.ListEarningsByWorker(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, earnings)
}

func (h *Handler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	payments, err := h.ledger.ListPaymentsByUser(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, payments)
}

func (h *Handler) GetPayoutAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	overview, err := h.jobs.ConnectedAccountStatus(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, overview)
}

type payoutAccountResponse struct {
	AccountID     string `json:"accountId"`
	OnboardingURL string `json:"onboardingUrl"`
}

func (h *Handler) CreatePayoutAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	accountID, link, err := h.jobs.EnsureConnectedAccount(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, payoutAccountResponse{AccountID: accountID, OnboardingURL: link})
}
