package common

import "errors"

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrInsufficientBalance: списание увело бы баланс в минус.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNoSlots: у задания не осталось свободных мест.
	ErrNoSlots = errors.New("no slots available")
	// ErrNotPending: охраняемый переход статуса не затронул ни одной строки.
	ErrNotPending = errors.New("record is not pending")
)
