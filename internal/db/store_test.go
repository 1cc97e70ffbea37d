package db

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigboard/internal/domain"
	"gigboard/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	store := NewWithDB(sqlx.NewDb(mockDB, "sqlmock"), slog.New(slog.DiscardHandler))
	return store, mock
}

func TestCreatePaymentDuplicateTransactionID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO payments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_payments_transaction_id"})

	p := &models.Payment{
		UserID:        1,
		Amount:        50,
		Type:          models.PaymentKindJobPayment,
		Status:        models.PaymentStateSucceeded,
		TransactionID: sql.NullString{String: "pi_123", Valid: true},
	}
	err := store.CreatePayment(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentReturnsID(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO payments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	p := &models.Payment{UserID: 1, Amount: 50, Type: models.PaymentKindJobPayment, Status: models.PaymentStatePending}
	require.NoError(t, store.CreatePayment(context.Background(), p))
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, now, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentByTransactionIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE transaction_id").
		WithArgs("pi_missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetPaymentByTransactionID(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatusByTransactionIDZeroRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(string(models.PaymentStateSucceeded), "pi_unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdatePaymentStatusByTransactionID(context.Background(), "pi_unknown", models.PaymentStateSucceeded)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEarningDuplicatePair(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO earnings").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "earnings_job_id_worker_id_key"})

	e := &models.Earning{WorkerID: 2, JobID: 5, Amount: 50, ServiceFee: 2.5, NetAmount: 47.5, Status: models.EarningStatusPending}
	err := store.CreateEarning(context.Background(), e)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteTaskRefreshesJobCounter(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE tasks SET is_completed").
		WithArgs(int64(2), at, int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}).AddRow(5))
	mock.ExpectExec("UPDATE jobs SET tasks_completed").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.CompleteTask(context.Background(), 11, 2, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateJobInsertsTasksInOrder(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO jobs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_posted"}).AddRow(3, time.Now()))
	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(32))
	mock.ExpectCommit()

	job := &models.Job{
		PosterID:      1,
		Title:         "Paint the fence",
		Description:   "Two coats of white paint on the back fence.",
		PaymentType:   models.PaymentTypeFixed,
		PaymentAmount: 50,
		ServiceFee:    2.5,
		TotalAmount:   52.5,
		Status:        models.JobStatusOpen,
		PaymentStatus: models.JobPaymentUnpaid,
	}
	tasks := []models.Task{{Description: "sand"}, {Description: "paint"}}

	require.NoError(t, store.CreateJob(context.Background(), job, tasks))
	assert.Equal(t, int64(3), job.ID)
	assert.Equal(t, 2, job.TasksTotal)
	assert.Equal(t, 1, tasks[0].Position)
	assert.Equal(t, 2, tasks[1].Position)
	assert.Equal(t, int64(3), tasks[1].JobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
