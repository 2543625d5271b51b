package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// UserRepository хранит участников площадки.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.UserWithBalance, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role valueobject.Role) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// LedgerRepository: балансы и журнал монет.
type LedgerRepository interface {
	OpenAccount(ctx context.Context, userID uuid.UUID) error
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64, kind string, referenceID *uuid.UUID) (*models.LedgerEntry, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int64, kind string, referenceID *uuid.UUID) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
}

// TaskRepository хранит задания и их свободные места.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetForShare(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementSlot(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Task, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Task, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Task, error)
}

// SubmissionRepository хранит отправки исполнителей.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Transition(ctx context.Context, id uuid.UUID, to valueobject.SubmissionStatus, reviewerID uuid.UUID) (*models.Submission, error)
	RejectPendingByTask(ctx context.Context, taskID uuid.UUID, reviewerID uuid.UUID) ([]models.Submission, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]models.Submission, error)
	ListPendingByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Submission, error)
	ListByTask(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]models.Submission, error)
}

// WithdrawalRepository хранит заявки на вывод.
type WithdrawalRepository interface {
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID) (*models.WithdrawalRequest, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error)
}

// NotificationRepository хранит уведомления для UI.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// PurchaseRepository хранит покупки монет.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *models.CoinPurchase) error
	GetByReference(ctx context.Context, reference string) (*models.CoinPurchase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.CoinPurchase, error)
}

// AuditRepository собирает агрегаты для сверки журнала.
type AuditRepository interface {
	Snapshot(ctx context.Context) (*models.LedgerSnapshot, error)
}

// Repositories: набор репозиториев, привязанных к одному соединению или транзакции.
type Repositories struct {
	Users         UserRepository
	Ledger        LedgerRepository
	Tasks         TaskRepository
	Submissions   SubmissionRepository
	Withdrawals   WithdrawalRepository
	Notifications NotificationRepository
	Purchases     PurchaseRepository
	Audit         AuditRepository
}

// Store выдаёт репозитории и единицу работы.
type Store interface {
	// Repos возвращает репозитории вне транзакции, для чтения.
	Repos() Repositories
	// WithinTx выполняет fn атомарно: при ошибке ни одно изменение не сохраняется.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}

// PostgresStore реализует Store поверх sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore создаёт хранилище.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Repos() Repositories {
	return newRepositories(s.db)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return common.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func newRepositories(db common.DBTX) Repositories {
	return Repositories{
		Users:         NewUserRepository(db),
		Ledger:        NewLedgerRepository(db),
		Tasks:         NewTaskRepository(db),
		Submissions:   NewSubmissionRepository(db),
		Withdrawals:   NewWithdrawalRepository(db),
		Notifications: NewNotificationRepository(db),
		Purchases:     NewPurchaseRepository(db),
		Audit:         NewAuditRepository(db),
	}
}
