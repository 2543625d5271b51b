// Package memory реализует хранилище в памяти процесса. Используется для локального
// запуска без PostgreSQL и в тестах движка.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
)

type state struct {
	users         map[uuid.UUID]models.User
	balances      map[uuid.UUID]int64
	entries       []models.LedgerEntry
	tasks         map[uuid.UUID]models.Task
	submissions   map[uuid.UUID]models.Submission
	withdrawals   map[uuid.UUID]models.WithdrawalRequest
	notifications map[uuid.UUID]models.Notification
	purchases     map[uuid.UUID]models.CoinPurchase
	lastTime      time.Time
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]models.User),
		balances:      make(map[uuid.UUID]int64),
		tasks:         make(map[uuid.UUID]models.Task),
		submissions:   make(map[uuid.UUID]models.Submission),
		withdrawals:   make(map[uuid.UUID]models.WithdrawalRequest),
		notifications: make(map[uuid.UUID]models.Notification),
		purchases:     make(map[uuid.UUID]models.CoinPurchase),
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (st *state) clone() *state {
	entries := make([]models.LedgerEntry, len(st.entries))
	copy(entries, st.entries)
	return &state{
		users:         cloneMap(st.users),
		balances:      cloneMap(st.balances),
		entries:       entries,
		tasks:         cloneMap(st.tasks),
		submissions:   cloneMap(st.submissions),
		withdrawals:   cloneMap(st.withdrawals),
		notifications: cloneMap(st.notifications),
		purchases:     cloneMap(st.purchases),
		lastTime:      st.lastTime,
	}
}

// now выдаёт строго возрастающие метки времени, чтобы сортировка по created_at была устойчивой.
func (st *state) now() time.Time {
	t := time.Now().UTC()
	if !t.After(st.lastTime) {
		t = st.lastTime.Add(time.Microsecond)
	}
	st.lastTime = t
	return t
}

// Store реализует repository.Store. Все операции сериализуются одним мьютексом,
// транзакция работает с копией состояния и подменяет оригинал только при успехе.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{st: newState()}
}

var _ repository.Store = (*Store)(nil)

// Repos возвращает репозитории, каждая операция которых атомарна сама по себе.
// Внутри WithinTx их вызывать нельзя: мьютекс уже захвачен.
func (s *Store) Repos() repository.Repositories {
	return newRepositories(&view{store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, newRepositories(&view{store: s, tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// view: доступ к состоянию: либо к копии внутри транзакции, либо к общему под мьютексом.
type view struct {
	store *Store
	tx    *state
}

func (v *view) run(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func newRepositories(v *view) repository.Repositories {
	return repository.Repositories{
		Users:         &userRepo{v: v},
		Ledger:        &ledgerRepo{v: v},
		Tasks:         &taskRepo{v: v},
		Submissions:   &submissionRepo{v: v},
		Withdrawals:   &withdrawalRepo{v: v},
		Notifications: &notificationRepo{v: v},
		Purchases:     &purchaseRepo{v: v},
		Audit:         &auditRepo{v: v},
	}
}

// page применяет limit/offset к уже отсортированному срезу. limit <= 0: без ограничения.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// collect выбирает значения карты по фильтру и сортирует от новых к старым.
func collect[T any](src map[uuid.UUID]T, keep func(T) bool, createdAt func(T) time.Time) []T {
	out := make([]T, 0)
	for _, item := range src {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}
