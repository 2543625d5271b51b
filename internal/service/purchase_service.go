package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
	"github.com/ignatzorin/microtask-escrow/internal/validation"
)

// PurchaseInput: подтверждённая checkout-провайдером покупка монет.
type PurchaseInput struct {
	BuyerID           uuid.UUID
	Coins             int64
	AmountPaid        decimal.Decimal
	ProviderReference string
}

// PurchaseService: единственный внешний вход в журнал помимо движка эскроу.
type PurchaseService struct {
	store repository.Store
}

// NewPurchaseService создаёт сервис покупок.
func NewPurchaseService(store repository.Store) *PurchaseService {
	return &PurchaseService{store: store}
}

// RecordPurchase начисляет монеты покупателю. Повтор с тем же ProviderReference
// возвращает исходную покупку и created=false, монеты второй раз не начисляются.
func (s *PurchaseService) RecordPurchase(ctx context.Context, in PurchaseInput) (*models.CoinPurchase, bool, error) {
	if in.BuyerID == uuid.Nil {
		return nil, false, apperror.New(apperror.ErrCodeInvalidArgument, "не указан покупатель")
	}
	if in.Coins <= 0 {
		return nil, false, apperror.New(apperror.ErrCodeInvalidArgument, "количество монет должно быть положительным")
	}
	if in.AmountPaid.IsNegative() {
		return nil, false, apperror.New(apperror.ErrCodeInvalidArgument, "сумма оплаты не может быть отрицательной")
	}
	if err := validation.ValidateProviderReference(in.ProviderReference); err != nil {
		return nil, false, invalid(err)
	}

	if existing, err := s.existing(ctx, in); existing != nil || err != nil {
		return existing, false, err
	}

	purchase := &models.CoinPurchase{
		ID:                uuid.New(),
		BuyerID:           in.BuyerID,
		Coins:             in.Coins,
		AmountPaid:        in.AmountPaid.Round(2),
		ProviderReference: in.ProviderReference,
	}

	err := runUnit(ctx, s.store, "record_purchase", func(ctx context.Context, u *unit) error {
		buyer, err := resolveActor(ctx, u.repos.Users, models.Principal{UserID: in.BuyerID})
		if err != nil {
			return err
		}
		if buyer.Role != valueobject.RoleBuyer {
			return apperror.New(apperror.ErrCodeForbidden, "покупать монеты может только покупатель")
		}
		if err := u.repos.Purchases.Create(ctx, purchase); err != nil {
			return storeError(err, nil)
		}
		_, err = u.ledger.credit(ctx, buyer.ID, purchase.Coins, models.LedgerKindPurchase, &purchase.ID)
		return err
	})
	if err != nil {
		// Параллельный вызов с той же ссылкой успел раньше.
		if errors.Is(err, apperror.ErrConflict) {
			if existing, lookupErr := s.existing(ctx, in); existing != nil {
				return existing, false, nil
			} else if lookupErr != nil {
				return nil, false, lookupErr
			}
		}
		return nil, false, err
	}

	logger.WithOperation("record_purchase").WithFields(map[string]interface{}{
		"purchase_id": purchase.ID,
		"buyer_id":    purchase.BuyerID,
		"coins":       purchase.Coins,
	}).Info("coins purchased")
	return purchase, true, nil
}

// existing ищет ранее записанную покупку. Ссылка чужого покупателя даёт CONFLICT.
func (s *PurchaseService) existing(ctx context.Context, in PurchaseInput) (*models.CoinPurchase, error) {
	p, err := s.store.Repos().Purchases.GetByReference(ctx, in.ProviderReference)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, nil)
	}
	if p.BuyerID != in.BuyerID || p.Coins != in.Coins {
		return nil, apperror.New(apperror.ErrCodeConflict, "ссылка провайдера уже использована для другой покупки")
	}
	return p, nil
}

// ListPurchases: история платежей вызывающего покупателя.
func (s *PurchaseService) ListPurchases(ctx context.Context, p models.Principal, limit, offset int) ([]models.CoinPurchase, error) {
	repos := s.store.Repos()
	user, err := resolveActor(ctx, repos.Users, p)
	if err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	items, err := repos.Purchases.ListByBuyer(ctx, user.ID, limit, offset)
	return items, storeError(err, nil)
}
