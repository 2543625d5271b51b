package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

func TestWithinTx_DiscardsChangesOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()
	require.NoError(t, store.Repos().Ledger.OpenAccount(ctx, userID))
	_, err := store.Repos().Ledger.Credit(ctx, userID, 50, models.LedgerKindSignupBonus, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Ledger.Debit(ctx, userID, 30, models.LedgerKindEscrowHold, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := store.Repos().Ledger.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	entries, err := store.Repos().Ledger.ListEntries(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()
	require.NoError(t, store.Repos().Ledger.OpenAccount(ctx, userID))

	err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Ledger.Credit(ctx, userID, 100, models.LedgerKindPurchase, nil)
		return err
	})
	require.NoError(t, err)

	balance, err := store.Repos().Ledger.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestLedgerDebit_NeverNegative(t *testing.T) {
	ctx := context.Background()
	ledger := NewStore().Repos().Ledger
	userID := uuid.New()
	require.NoError(t, ledger.OpenAccount(ctx, userID))

	_, err := ledger.Debit(ctx, userID, 1, models.LedgerKindEscrowHold, nil)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)

	_, err = ledger.Debit(ctx, uuid.New(), 1, models.LedgerKindEscrowHold, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTaskDecrementSlot(t *testing.T) {
	ctx := context.Background()
	tasks := NewStore().Repos().Tasks
	task := &models.Task{BuyerID: uuid.New(), Title: "t", Detail: "d", PayableAmount: 5, RequiredWorkers: 1}
	require.NoError(t, tasks.Create(ctx, task))

	updated, err := tasks.DecrementSlot(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.RequiredWorkers)

	_, err = tasks.DecrementSlot(ctx, task.ID)
	assert.ErrorIs(t, err, common.ErrNoSlots)

	open, err := tasks.ListOpen(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSubmissionTransition_Terminal(t *testing.T) {
	ctx := context.Background()
	subs := NewStore().Repos().Submissions
	s := &models.Submission{TaskID: uuid.New(), BuyerID: uuid.New(), WorkerID: uuid.New(), PayableAmount: 3, Details: "done"}
	require.NoError(t, subs.Create(ctx, s))
	assert.Equal(t, valueobject.SubmissionStatusPending, s.Status)

	reviewer := uuid.New()
	got, err := subs.Transition(ctx, s.ID, valueobject.SubmissionStatusRejected, reviewer)
	require.NoError(t, err)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, reviewer, *got.ReviewedBy)

	_, err = subs.Transition(ctx, s.ID, valueobject.SubmissionStatusApproved, reviewer)
	assert.ErrorIs(t, err, common.ErrNotPending)
}

func TestPurchaseCreate_UniqueReference(t *testing.T) {
	ctx := context.Background()
	purchases := NewStore().Repos().Purchases
	buyer := uuid.New()

	require.NoError(t, purchases.Create(ctx, &models.CoinPurchase{BuyerID: buyer, Coins: 100, ProviderReference: "ref-1"}))
	err := purchases.Create(ctx, &models.CoinPurchase{BuyerID: buyer, Coins: 100, ProviderReference: "ref-1"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	list, err := purchases.ListByBuyer(ctx, buyer, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, page(items, 2, 2))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, page(items, 0, 0))
	assert.Empty(t, page(items, 10, 9))
}

func TestLedgerCredit_RejectsOverflow(t *testing.T) {
	ctx := context.Background()
	ledger := NewStore().Repos().Ledger
	userID := uuid.New()
	require.NoError(t, ledger.OpenAccount(ctx, userID))

	_, err := ledger.Credit(ctx, userID, math.MaxInt64, models.LedgerKindPurchase, nil)
	require.NoError(t, err)

	_, err = ledger.Credit(ctx, userID, 1, models.LedgerKindPurchase, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	balance, err := ledger.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance)

	entries, err := ledger.ListEntries(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTaskListAll_IncludesFilled(t *testing.T) {
	ctx := context.Background()
	tasks := NewStore().Repos().Tasks
	filled := &models.Task{BuyerID: uuid.New(), Title: "filled", Detail: "d", PayableAmount: 5, RequiredWorkers: 0}
	open := &models.Task{BuyerID: uuid.New(), Title: "open", Detail: "d", PayableAmount: 5, RequiredWorkers: 2}
	require.NoError(t, tasks.Create(ctx, filled))
	require.NoError(t, tasks.Create(ctx, open))

	all, err := tasks.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	listed, err := tasks.ListOpen(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, open.ID, listed[0].ID)

	_, err = tasks.GetForShare(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
