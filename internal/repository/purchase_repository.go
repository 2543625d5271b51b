package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

// PgPurchaseRepository отвечает за таблицу coin_purchases.
type PgPurchaseRepository struct {
	db common.DBTX
}

func NewPurchaseRepository(db common.DBTX) *PgPurchaseRepository {
	return &PgPurchaseRepository{db: db}
}

// Create сохраняет покупку. Повтор provider_reference даёт ErrAlreadyExists.
func (r *PgPurchaseRepository) Create(ctx context.Context, p *models.CoinPurchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO coin_purchases (id, buyer_id, coins, amount_paid, provider_reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.BuyerID, p.Coins, p.AmountPaid, p.ProviderReference).Scan(&p.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("purchase repository: create %w", err)
	}
	return nil
}

// GetByReference ищет покупку по ссылке платёжного провайдера.
func (r *PgPurchaseRepository) GetByReference(ctx context.Context, reference string) (*models.CoinPurchase, error) {
	var p models.CoinPurchase
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT * FROM coin_purchases WHERE provider_reference = $1`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("purchase repository: get by reference %w", err)
	}
	return &p, nil
}

// ListByBuyer: история платежей покупателя.
func (r *PgPurchaseRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.CoinPurchase, error) {
	items, err := common.SelectPage[models.CoinPurchase](ctx, r.db, `
		SELECT * FROM coin_purchases WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("purchase repository: list by buyer %w", err)
	}
	return items, nil
}
