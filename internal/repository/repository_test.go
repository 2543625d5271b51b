package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		raw.Close()
	})
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestLedgerDebit_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)
	userID := uuid.New()
	ref := uuid.New()

	mock.ExpectQuery(q("UPDATE coin_balances SET balance = balance - $2")).
		WithArgs(userID, int64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(20)))
	mock.ExpectQuery(q("INSERT INTO coin_ledger_entries")).
		WithArgs(sqlmock.AnyArg(), userID, models.LedgerKindEscrowHold, int64(-30), int64(20), &ref).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	entry, err := repo.Debit(context.Background(), userID, 30, models.LedgerKindEscrowHold, &ref)
	require.NoError(t, err)
	assert.Equal(t, int64(-30), entry.Amount)
	assert.Equal(t, int64(20), entry.BalanceAfter)
}

func TestLedgerDebit_InsufficientBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(q("UPDATE coin_balances SET balance = balance - $2")).
		WithArgs(userID, int64(500)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM coin_balances")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.Debit(context.Background(), userID, 500, models.LedgerKindWithdrawalHold, nil)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
}

func TestLedgerDebit_NoAccount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(q("UPDATE coin_balances SET balance = balance - $2")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM coin_balances")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Debit(context.Background(), userID, 1, models.LedgerKindEscrowHold, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLedgerCredit_WritesEntry(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLedgerRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(q("UPDATE coin_balances SET balance = balance + $2")).
		WithArgs(userID, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(60)))
	mock.ExpectQuery(q("INSERT INTO coin_ledger_entries")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	entry, err := repo.Credit(context.Background(), userID, 10, models.LedgerKindTaskPayout, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.Amount)
	assert.Equal(t, int64(60), entry.BalanceAfter)
}

func TestTaskDecrementSlot_NoSlots(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	taskID := uuid.New()

	mock.ExpectQuery(q("UPDATE tasks SET required_workers = required_workers - 1")).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM tasks")).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.DecrementSlot(context.Background(), taskID)
	assert.ErrorIs(t, err, common.ErrNoSlots)
}

func TestTaskDecrementSlot_ReturnsTask(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	taskID := uuid.New()
	buyerID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "buyer_id", "title", "payable_amount", "required_workers"}).
		AddRow(taskID.String(), buyerID.String(), "Лайк", int64(10), int64(2))
	mock.ExpectQuery(q("UPDATE tasks SET required_workers = required_workers - 1")).
		WithArgs(taskID).
		WillReturnRows(rows)

	task, err := repo.DecrementSlot(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), task.RequiredWorkers)
	assert.Equal(t, buyerID, task.BuyerID)
}

func TestTaskGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery(q("SELECT * FROM tasks WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTaskGetForShare_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	taskID := uuid.New()

	mock.ExpectQuery(q("SELECT * FROM tasks WHERE id = $1 FOR SHARE")).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "required_workers"}).AddRow(taskID.String(), int64(4)))

	task, err := repo.GetForShare(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), task.RequiredWorkers)
}

func TestTaskGetForShare_Deleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery(q("FOR SHARE")).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForShare(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTaskListAll_NoStatusFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery(`SELECT \* FROM tasks\s+ORDER BY created_at DESC`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "required_workers"}).
			AddRow(uuid.NewString(), int64(0)).
			AddRow(uuid.NewString(), int64(3)))

	tasks, err := repo.ListAll(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSubmissionTransition_NotPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubmissionRepository(db)
	id := uuid.New()
	reviewer := uuid.New()

	mock.ExpectQuery(q("UPDATE submissions SET status = $2")).
		WithArgs(id, valueobject.SubmissionStatusApproved, reviewer).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM submissions")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.Transition(context.Background(), id, valueobject.SubmissionStatusApproved, reviewer)
	assert.ErrorIs(t, err, common.ErrNotPending)
}

func TestWithdrawalApprove_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWithdrawalRepository(db)
	id := uuid.New()

	mock.ExpectQuery(q("UPDATE withdrawal_requests SET status = 'approved'")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(q("SELECT * FROM withdrawal_requests WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Approve(context.Background(), id, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPurchaseCreate_DuplicateReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPurchaseRepository(db)

	mock.ExpectQuery(q("INSERT INTO coin_purchases")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.CoinPurchase{
		BuyerID:           uuid.New(),
		Coins:             100,
		AmountPaid:        decimal.NewFromInt(5),
		ProviderReference: "pi_1",
	})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestNotificationMarkRead_ForeignIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(q("UPDATE notifications SET is_read = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAuditSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)

	rows := sqlmock.NewRows([]string{
		"total_balances", "outstanding_escrow", "pending_withdrawals",
		"approved_withdrawals", "external_credits", "taken_at",
	}).AddRow(int64(70), int64(20), int64(0), int64(0), int64(90), time.Now())
	mock.ExpectQuery(q("AS total_balances")).WillReturnRows(rows)

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Drift())
}

func TestPostgresStore_WithinTxCommits(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO coin_balances")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Ledger.OpenAccount(ctx, userID)
	})
	require.NoError(t, err)
}

func TestPostgresStore_WithinTxRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
