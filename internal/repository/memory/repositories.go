package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository/common"
)

type userRepo struct{ v *view }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	return r.v.run(func(st *state) error {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if _, ok := st.users[user.ID]; ok {
			return common.ErrAlreadyExists
		}
		user.CreatedAt = st.now()
		user.UpdatedAt = user.CreatedAt
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out models.User
	err := r.v.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) List(_ context.Context, limit, offset int) ([]models.UserWithBalance, error) {
	var out []models.UserWithBalance
	err := r.v.run(func(st *state) error {
		users := collect(st.users, func(models.User) bool { return true }, func(u models.User) time.Time { return u.CreatedAt })
		items := make([]models.UserWithBalance, 0, len(users))
		for _, u := range users {
			items = append(items, models.UserWithBalance{User: u, Balance: st.balances[u.ID]})
		}
		out = page(items, limit, offset)
		return nil
	})
	return out, err
}

func (r *userRepo) UpdateRole(_ context.Context, id uuid.UUID, role valueobject.Role) error {
	return r.v.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrNotFound
		}
		u.Role = role
		u.UpdatedAt = st.now()
		st.users[id] = u
		return nil
	})
}

func (r *userRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	return r.v.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrNotFound
		}
		u.IsActive = false
		u.UpdatedAt = st.now()
		st.users[id] = u
		return nil
	})
}

type ledgerRepo struct{ v *view }

func (r *ledgerRepo) OpenAccount(_ context.Context, userID uuid.UUID) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.balances[userID]; !ok {
			st.balances[userID] = 0
		}
		return nil
	})
}

func (r *ledgerRepo) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.v.run(func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			return common.ErrNotFound
		}
		balance = b
		return nil
	})
	return balance, err
}

func (r *ledgerRepo) Credit(_ context.Context, userID uuid.UUID, amount int64, kind string, referenceID *uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.v.run(func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			return common.ErrNotFound
		}
		if amount > math.MaxInt64-b {
			return common.ErrInvalidInput
		}
		st.balances[userID] = b + amount
		entry = appendEntry(st, userID, kind, amount, b+amount, referenceID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepo) Debit(_ context.Context, userID uuid.UUID, amount int64, kind string, referenceID *uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.v.run(func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			return common.ErrNotFound
		}
		if b < amount {
			return common.ErrInsufficientBalance
		}
		st.balances[userID] = b - amount
		entry = appendEntry(st, userID, kind, -amount, b-amount, referenceID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func appendEntry(st *state, userID uuid.UUID, kind string, amount, balanceAfter int64, referenceID *uuid.UUID) models.LedgerEntry {
	entry := models.LedgerEntry{
		ID:           uuid.New(),
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		ReferenceID:  referenceID,
		CreatedAt:    st.now(),
	}
	st.entries = append(st.entries, entry)
	return entry
}

func (r *ledgerRepo) ListEntries(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	err := r.v.run(func(st *state) error {
		items := make([]models.LedgerEntry, 0)
		for i := len(st.entries) - 1; i >= 0; i-- {
			if st.entries[i].UserID == userID {
				items = append(items, st.entries[i])
			}
		}
		out = page(items, limit, offset)
		return nil
	})
	return out, err
}

type taskRepo struct{ v *view }

func (r *taskRepo) Create(_ context.Context, task *models.Task) error {
	return r.v.run(func(st *state) error {
		if task.ID == uuid.Nil {
			task.ID = uuid.New()
		}
		task.CreatedAt = st.now()
		task.UpdatedAt = task.CreatedAt
		st.tasks[task.ID] = *task
		return nil
	})
}

func (r *taskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	var out models.Task
	err := r.v.run(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok {
			return common.ErrNotFound
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate совпадает с GetByID: транзакция и так держит мьютекс хранилища.
func (r *taskRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return r.GetByID(ctx, id)
}

func (r *taskRepo) GetForShare(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return r.GetByID(ctx, id)
}

func (r *taskRepo) Update(_ context.Context, task *models.Task) error {
	return r.v.run(func(st *state) error {
		cur, ok := st.tasks[task.ID]
		if !ok {
			return common.ErrNotFound
		}
		cur.Title = task.Title
		cur.Detail = task.Detail
		cur.SubmissionInfo = task.SubmissionInfo
		cur.CompletionDate = task.CompletionDate
		cur.ImageURL = task.ImageURL
		cur.UpdatedAt = st.now()
		st.tasks[task.ID] = cur
		task.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *taskRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.run(func(st *state) error {
		if _, ok := st.tasks[id]; !ok {
			return common.ErrNotFound
		}
		delete(st.tasks, id)
		return nil
	})
}

func (r *taskRepo) DecrementSlot(_ context.Context, id uuid.UUID) (*models.Task, error) {
	var out models.Task
	err := r.v.run(func(st *state) error {
		t, ok := st.tasks[id]
		if !ok {
			return common.ErrNotFound
		}
		if t.RequiredWorkers <= 0 {
			return common.ErrNoSlots
		}
		t.RequiredWorkers--
		t.UpdatedAt = st.now()
		st.tasks[id] = t
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func taskCreatedAt(t models.Task) time.Time { return t.CreatedAt }

func (r *taskRepo) ListOpen(_ context.Context, limit, offset int) ([]models.Task, error) {
	var out []models.Task
	err := r.v.run(func(st *state) error {
		out = page(collect(st.tasks, func(t models.Task) bool { return t.RequiredWorkers > 0 }, taskCreatedAt), limit, offset)
		return nil
	})
	return out, err
}

func (r *taskRepo) ListAll(_ context.Context, limit, offset int) ([]models.Task, error) {
	var out []models.Task
	err := r.v.run(func(st *state) error {
		out = page(collect(st.tasks, func(models.Task) bool { return true }, taskCreatedAt), limit, offset)
		return nil
	})
	return out, err
}

func (r *taskRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Task, error) {
	var out []models.Task
	err := r.v.run(func(st *state) error {
		out = page(collect(st.tasks, func(t models.Task) bool { return t.BuyerID == buyerID }, taskCreatedAt), limit, offset)
		return nil
	})
	return out, err
}

type submissionRepo struct{ v *view }

func (r *submissionRepo) Create(_ context.Context, s *models.Submission) error {
	return r.v.run(func(st *state) error {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.Status = valueobject.SubmissionStatusPending
		s.CreatedAt = st.now()
		st.submissions[s.ID] = *s
		return nil
	})
}

func (r *submissionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	var out models.Submission
	err := r.v.run(func(st *state) error {
		s, ok := st.submissions[id]
		if !ok {
			return common.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func review(st *state, s models.Submission, to valueobject.SubmissionStatus, reviewerID uuid.UUID) models.Submission {
	at := st.now()
	by := reviewerID
	s.Status = to
	s.ReviewedAt = &at
	s.ReviewedBy = &by
	st.submissions[s.ID] = s
	return s
}

func (r *submissionRepo) Transition(_ context.Context, id uuid.UUID, to valueobject.SubmissionStatus, reviewerID uuid.UUID) (*models.Submission, error) {
	var out models.Submission
	err := r.v.run(func(st *state) error {
		s, ok := st.submissions[id]
		if !ok {
			return common.ErrNotFound
		}
		if !s.Status.CanTransitionTo(to) {
			return common.ErrNotPending
		}
		out = review(st, s, to, reviewerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *submissionRepo) RejectPendingByTask(_ context.Context, taskID uuid.UUID, reviewerID uuid.UUID) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	err := r.v.run(func(st *state) error {
		pending := collect(st.submissions, func(s models.Submission) bool {
			return s.TaskID == taskID && s.IsPending()
		}, submissionCreatedAt)
		for _, s := range pending {
			out = append(out, review(st, s, valueobject.SubmissionStatusRejected, reviewerID))
		}
		return nil
	})
	return out, err
}

func submissionCreatedAt(s models.Submission) time.Time { return s.CreatedAt }

func (r *submissionRepo) list(keep func(models.Submission) bool, limit, offset int) ([]models.Submission, error) {
	var out []models.Submission
	err := r.v.run(func(st *state) error {
		out = page(collect(st.submissions, keep, submissionCreatedAt), limit, offset)
		return nil
	})
	return out, err
}

func (r *submissionRepo) ListByWorker(_ context.Context, workerID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	return r.list(func(s models.Submission) bool { return s.WorkerID == workerID }, limit, offset)
}

func (r *submissionRepo) ListPendingByBuyer(_ context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	return r.list(func(s models.Submission) bool { return s.BuyerID == buyerID && s.IsPending() }, limit, offset)
}

func (r *submissionRepo) ListByTask(_ context.Context, taskID uuid.UUID, limit, offset int) ([]models.Submission, error) {
	return r.list(func(s models.Submission) bool { return s.TaskID == taskID }, limit, offset)
}

type withdrawalRepo struct{ v *view }

func (r *withdrawalRepo) Create(_ context.Context, w *models.WithdrawalRequest) error {
	return r.v.run(func(st *state) error {
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		w.Status = valueobject.WithdrawalStatusPending
		w.RequestedAt = st.now()
		st.withdrawals[w.ID] = *w
		return nil
	})
}

func (r *withdrawalRepo) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var out models.WithdrawalRequest
	err := r.v.run(func(st *state) error {
		w, ok := st.withdrawals[id]
		if !ok {
			return common.ErrNotFound
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *withdrawalRepo) Approve(_ context.Context, id uuid.UUID, adminID uuid.UUID) (*models.WithdrawalRequest, error) {
	var out models.WithdrawalRequest
	err := r.v.run(func(st *state) error {
		w, ok := st.withdrawals[id]
		if !ok {
			return common.ErrNotFound
		}
		if !w.Status.CanTransitionTo(valueobject.WithdrawalStatusApproved) {
			return common.ErrNotPending
		}
		at := st.now()
		by := adminID
		w.Status = valueobject.WithdrawalStatusApproved
		w.ApprovedAt = &at
		w.ApprovedBy = &by
		st.withdrawals[id] = w
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func withdrawalRequestedAt(w models.WithdrawalRequest) time.Time { return w.RequestedAt }

func (r *withdrawalRepo) ListByWorker(_ context.Context, workerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	var out []models.WithdrawalRequest
	err := r.v.run(func(st *state) error {
		out = page(collect(st.withdrawals, func(w models.WithdrawalRequest) bool { return w.WorkerID == workerID }, withdrawalRequestedAt), limit, offset)
		return nil
	})
	return out, err
}

func (r *withdrawalRepo) ListPending(_ context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	var out []models.WithdrawalRequest
	err := r.v.run(func(st *state) error {
		items := collect(st.withdrawals, func(w models.WithdrawalRequest) bool {
			return w.Status == valueobject.WithdrawalStatusPending
		}, withdrawalRequestedAt)
		// Очередь администратора идёт от старых заявок к новым.
		sort.SliceStable(items, func(i, j int) bool { return items[i].RequestedAt.Before(items[j].RequestedAt) })
		out = page(items, limit, offset)
		return nil
	})
	return out, err
}

type notificationRepo struct{ v *view }

func (r *notificationRepo) Create(_ context.Context, n *models.Notification) error {
	return r.v.run(func(st *state) error {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		n.CreatedAt = st.now()
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	err := r.v.run(func(st *state) error {
		out = page(collect(st.notifications, func(n models.Notification) bool { return n.UserID == userID },
			func(n models.Notification) time.Time { return n.CreatedAt }), limit, offset)
		return nil
	})
	return out, err
}

func (r *notificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	return r.v.run(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			return common.ErrNotFound
		}
		n.IsRead = true
		st.notifications[id] = n
		return nil
	})
}

func (r *notificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.v.run(func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

type purchaseRepo struct{ v *view }

func (r *purchaseRepo) Create(_ context.Context, p *models.CoinPurchase) error {
	return r.v.run(func(st *state) error {
		for _, existing := range st.purchases {
			if existing.ProviderReference == p.ProviderReference {
				return common.ErrAlreadyExists
			}
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.CreatedAt = st.now()
		st.purchases[p.ID] = *p
		return nil
	})
}

func (r *purchaseRepo) GetByReference(_ context.Context, reference string) (*models.CoinPurchase, error) {
	var out models.CoinPurchase
	err := r.v.run(func(st *state) error {
		for _, p := range st.purchases {
			if p.ProviderReference == reference {
				out = p
				return nil
			}
		}
		return common.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *purchaseRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID, limit, offset int) ([]models.CoinPurchase, error) {
	var out []models.CoinPurchase
	err := r.v.run(func(st *state) error {
		out = page(collect(st.purchases, func(p models.CoinPurchase) bool { return p.BuyerID == buyerID },
			func(p models.CoinPurchase) time.Time { return p.CreatedAt }), limit, offset)
		return nil
	})
	return out, err
}

type auditRepo struct{ v *view }

func (r *auditRepo) Snapshot(_ context.Context) (*models.LedgerSnapshot, error) {
	var snap models.LedgerSnapshot
	err := r.v.run(func(st *state) error {
		for _, b := range st.balances {
			snap.TotalBalances += b
		}
		for _, t := range st.tasks {
			snap.OutstandingEscrow += t.RemainingEscrow()
		}
		for _, w := range st.withdrawals {
			switch w.Status {
			case valueobject.WithdrawalStatusPending:
				snap.PendingWithdrawals += w.WithdrawalCoin
			case valueobject.WithdrawalStatusApproved:
				snap.ApprovedWithdrawals += w.WithdrawalCoin
			}
		}
		external := make(map[string]struct{}, len(models.ExternalCreditKinds))
		for _, k := range models.ExternalCreditKinds {
			external[k] = struct{}{}
		}
		for _, e := range st.entries {
			if _, ok := external[e.Kind]; ok {
				snap.ExternalCredits += e.Amount
			}
		}
		snap.TakenAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
