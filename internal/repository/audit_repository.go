package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// PgAuditRepository считает агрегаты сверки одним запросом.
type PgAuditRepository struct {
	db common.DBTX
}

func NewAuditRepository(db common.DBTX) *PgAuditRepository {
	return &PgAuditRepository{db: db}
}

const snapshotQuery = `
	SELECT
		(SELECT COALESCE(SUM(balance), 0)::BIGINT FROM coin_balances) AS total_balances,
		(SELECT COALESCE(SUM(payable_amount * required_workers), 0)::BIGINT FROM tasks) AS outstanding_escrow,
		(SELECT COALESCE(SUM(withdrawal_coin), 0)::BIGINT FROM withdrawal_requests WHERE status = 'pending') AS pending_withdrawals,
		(SELECT COALESCE(SUM(withdrawal_coin), 0)::BIGINT FROM withdrawal_requests WHERE status = 'approved') AS approved_withdrawals,
		(SELECT COALESCE(SUM(amount), 0)::BIGINT FROM coin_ledger_entries WHERE kind = ANY($1)) AS external_credits,
		NOW() AS taken_at
`

// Snapshot возвращает суммы для проверки сохранения монет.
func (r *PgAuditRepository) Snapshot(ctx context.Context) (*models.LedgerSnapshot, error) {
	var s models.LedgerSnapshot
	if err := sqlx.GetContext(ctx, r.db, &s, snapshotQuery, pq.Array(models.ExternalCreditKinds)); err != nil {
		return nil, fmt.Errorf("audit repository: snapshot %w", err)
	}
	return &s, nil
}
