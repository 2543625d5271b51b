package valueobject

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
)

func TestSubmissionStatus_Transitions(t *testing.T) {
	assert.True(t, SubmissionStatusPending.CanTransitionTo(SubmissionStatusApproved))
	assert.True(t, SubmissionStatusPending.CanTransitionTo(SubmissionStatusRejected))
	assert.False(t, SubmissionStatusPending.CanTransitionTo(SubmissionStatusPending))
	assert.False(t, SubmissionStatusApproved.CanTransitionTo(SubmissionStatusRejected))
	assert.False(t, SubmissionStatusRejected.CanTransitionTo(SubmissionStatusApproved))
	assert.False(t, SubmissionStatusApproved.CanTransitionTo(SubmissionStatusApproved))
}

func TestWithdrawalStatus_Transitions(t *testing.T) {
	assert.True(t, WithdrawalStatusPending.CanTransitionTo(WithdrawalStatusApproved))
	assert.False(t, WithdrawalStatusApproved.CanTransitionTo(WithdrawalStatusApproved))
	assert.False(t, WithdrawalStatus("rejected").IsValid())
}

func TestNewRole(t *testing.T) {
	r, err := NewRole("worker")
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, r)

	_, err = NewRole("superuser")
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestEscrowTotal(t *testing.T) {
	total, err := EscrowTotal(10, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(500), total)

	_, err = EscrowTotal(0, 5)
	assert.True(t, apperror.IsInvalidArgument(err))

	_, err = EscrowTotal(5, 0)
	assert.True(t, apperror.IsInvalidArgument(err))

	_, err = EscrowTotal(math.MaxInt64/2, 3)
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestExchangeRate_Payout(t *testing.T) {
	rate, err := NewExchangeRate(20)
	require.NoError(t, err)

	assert.Equal(t, "10", rate.Payout(200).String())
	assert.Equal(t, "10.5", rate.Payout(210).String())
	assert.Equal(t, "0.33", mustRate(t, 3).Payout(1).String())

	_, err = NewExchangeRate(0)
	assert.Error(t, err)
}

func mustRate(t *testing.T, coinsPerUnit int64) ExchangeRate {
	t.Helper()
	r, err := NewExchangeRate(coinsPerUnit)
	require.NoError(t, err)
	return r
}
