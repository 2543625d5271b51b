package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignatzorin/microtask-escrow/internal/goroutine"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/metrics"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
)

const auditTimeout = 30 * time.Second

// AuditService сверяет журнал: монеты на балансах, в эскроу и в заявках на вывод
// должны совпадать с суммой внешних поступлений.
type AuditService struct {
	store repository.Store
	cron  *cron.Cron
}

// NewAuditService создаёт сервис сверки.
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Run делает одну сверку и обновляет метрики.
func (s *AuditService) Run(ctx context.Context) (*models.LedgerSnapshot, error) {
	snap, err := s.store.Repos().Audit.Snapshot(ctx)
	if err != nil {
		metrics.LedgerAuditsTotal.WithLabelValues("error").Inc()
		logger.WithOperation("ledger_audit").WithError(err).Error("ledger audit failed")
		return nil, storeError(err, nil)
	}

	metrics.LedgerDrift.Set(float64(snap.Drift()))
	metrics.OutstandingEscrow.Set(float64(snap.OutstandingEscrow))

	entry := logger.WithOperation("ledger_audit").WithFields(map[string]interface{}{
		"total_balances":       snap.TotalBalances,
		"outstanding_escrow":   snap.OutstandingEscrow,
		"pending_withdrawals":  snap.PendingWithdrawals,
		"approved_withdrawals": snap.ApprovedWithdrawals,
		"external_credits":     snap.ExternalCredits,
		"drift":                snap.Drift(),
	})
	if snap.Drift() != 0 {
		metrics.LedgerAuditsTotal.WithLabelValues("drift").Inc()
		entry.Error("ledger conservation violated")
	} else {
		metrics.LedgerAuditsTotal.WithLabelValues("ok").Inc()
		entry.Info("ledger balanced")
	}

	return snap, nil
}

// Start запускает периодическую сверку по cron-расписанию с секундами.
func (s *AuditService) Start(schedule string) error {
	s.cron = cron.New(cron.WithSeconds())
	_, err := s.cron.AddFunc(schedule, goroutine.Protect("ledger audit", func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		_, _ = s.Run(ctx)
	}))
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Log.WithField("schedule", schedule).Info("ledger audit scheduled")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущей сверки.
func (s *AuditService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
