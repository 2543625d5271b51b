package valueobject

import "github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeInvalidArgument, "некорректная роль пользователя")
	}
	return r, nil
}

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo: из pending можно только в approved или rejected,
// остальные статусы терминальные.
func (s SubmissionStatus) CanTransitionTo(newStatus SubmissionStatus) bool {
	if s != SubmissionStatusPending {
		return false
	}
	return newStatus == SubmissionStatusApproved || newStatus == SubmissionStatusRejected
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
)

func (s WithdrawalStatus) IsValid() bool {
	return s == WithdrawalStatusPending || s == WithdrawalStatusApproved
}

func (s WithdrawalStatus) CanTransitionTo(newStatus WithdrawalStatus) bool {
	return s == WithdrawalStatusPending && newStatus == WithdrawalStatusApproved
}
