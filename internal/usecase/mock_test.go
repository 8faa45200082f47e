//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
)

// =============================
// In-memory repositories
// =============================

// ---- users ----

type memUserRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.User
	ErrOn error // when set, every call fails with it
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*model.User{}}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.ErrOn != nil {
		return m.ErrOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.ErrOn != nil {
		return nil, m.ErrOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if m.ErrOn != nil {
		return nil, m.ErrOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(m.byID))
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUserRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, premium bool) error {
	if m.ErrOn != nil {
		return m.ErrOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Status = premium
	return nil
}

func (m *memUserRepo) UpdateWallet(ctx context.Context, tx repository.Tx, id string, coins int64, premiumAvatarID *string) error {
	if m.ErrOn != nil {
		return m.ErrOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Coins = coins
	if premiumAvatarID != nil {
		u.PremiumAvatarID = premiumAvatarID
	}
	return nil
}

// ---- plans ----

type memPlanRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Plan
}

var _ repository.PlanRepository = (*memPlanRepo)(nil)

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{byID: map[string]*model.Plan{}}
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.byID))
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ---- user plans ----

type memUserPlanRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.UserPlan
	SaveErr error
}

var _ repository.UserPlanRepository = (*memUserPlanRepo)(nil)

func newMemUserPlanRepo() *memUserPlanRepo {
	return &memUserPlanRepo{byID: map[string]*model.UserPlan{}}
}

func (m *memUserPlanRepo) Save(ctx context.Context, tx repository.Tx, up *model.UserPlan) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *up
	m.byID[up.ID] = &cp
	return nil
}

func (m *memUserPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *up
	return &cp, nil
}

func (m *memUserPlanRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UserPlan
	for _, up := range m.byID {
		if up.UserID == userID {
			cp := *up
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUserPlanRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, up := range m.byID {
		if up.UserID == userID && up.Status == model.UserPlanStatusActive && !up.EndDate.Before(now) {
			cp := *up
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserPlanRepo) ExpireStale(ctx context.Context, tx repository.Tx, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, up := range m.byID {
		if up.UserID == userID && up.Status == model.UserPlanStatusActive && up.EndDate.Before(now) {
			up.Status = model.UserPlanStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memUserPlanRepo) ListExpiredActive(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.UserPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UserPlan
	for _, up := range m.byID {
		if up.Status == model.UserPlanStatusActive && up.EndDate.Before(now) {
			cp := *up
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memUserPlanRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.UserPlanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	up.Status = status
	return nil
}

func (m *memUserPlanRepo) HasOtherActive(ctx context.Context, tx repository.Tx, userID, exceptID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, up := range m.byID {
		if up.ID == exceptID {
			continue
		}
		if up.UserID == userID && up.Status == model.UserPlanStatusActive && !up.EndDate.Before(now) {
			return true, nil
		}
	}
	return false, nil
}

// ---- click transactions ----

type memClickRepo struct {
	mu   sync.Mutex
	byID map[string]*model.ClickTransaction // keyed by record id
}

var _ repository.ClickTransactionRepository = (*memClickRepo)(nil)

func newMemClickRepo() *memClickRepo {
	return &memClickRepo{byID: map[string]*model.ClickTransaction{}}
}

func (m *memClickRepo) Save(ctx context.Context, tx repository.Tx, t *model.ClickTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.ClickTransID == t.ClickTransID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memClickRepo) FindByClickTransID(ctx context.Context, tx repository.Tx, clickTransID string) (*model.ClickTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.ClickTransID == clickTransID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memClickRepo) FindByUserPlanStatus(ctx context.Context, tx repository.Tx, userID, planID string, status model.TransactionStatus) (*model.ClickTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.UserID == userID && t.PlanID == planID && t.Status == status {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memClickRepo) FindByPrepareID(ctx context.Context, tx repository.Tx, userID, planID, prepareID string) (*model.ClickTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.UserID == userID && t.PlanID == planID && t.PrepareID == prepareID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memClickRepo) FindPaidByPlanAndPrepareID(ctx context.Context, tx repository.Tx, planID, prepareID string) (*model.ClickTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.PlanID == planID && t.PrepareID == prepareID && t.Status == model.TransactionStatusPaid {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memClickRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	return nil
}

// ---- payme transactions ----

type memPaymeRepo struct {
	mu   sync.Mutex
	byID map[string]*model.PaymeTransaction // keyed by record id
}

var _ repository.PaymeTransactionRepository = (*memPaymeRepo)(nil)

func newMemPaymeRepo() *memPaymeRepo {
	return &memPaymeRepo{byID: map[string]*model.PaymeTransaction{}}
}

func (m *memPaymeRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymeTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.PaymeTransID == t.PaymeTransID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memPaymeRepo) FindByPaymeTransID(ctx context.Context, tx repository.Tx, paymeTransID string) (*model.PaymeTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.PaymeTransID == paymeTransID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymeRepo) FindPendingByUserAndPlan(ctx context.Context, tx repository.Tx, userID, planID string) (*model.PaymeTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.UserID == userID && t.PlanID == planID && t.Status == model.TransactionStatusPending {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymeRepo) Perform(ctx context.Context, tx repository.Tx, paymeTransID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.PaymeTransID == paymeTransID {
			t.Status = model.TransactionStatusPaid
			t.State = model.PaymeStatePaid
			att := at
			t.PerformAt = &att
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memPaymeRepo) Cancel(ctx context.Context, tx repository.Tx, paymeTransID string, state model.PaymeTransactionState, reason int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.PaymeTransID == paymeTransID {
			t.Status = model.TransactionStatusCanceled
			t.State = state
			r := reason
			t.Reason = &r
			att := at
			t.CancelAt = &att
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memPaymeRepo) ListByCreatedRange(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.PaymeTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymeTransaction
	for _, t := range m.byID {
		if !t.CreatedAt.Before(from) && !t.CreatedAt.After(to) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- avatars ----

type memAvatarRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Avatar
}

var _ repository.AvatarRepository = (*memAvatarRepo)(nil)

func newMemAvatarRepo() *memAvatarRepo {
	return &memAvatarRepo{byID: map[string]*model.Avatar{}}
}

func (m *memAvatarRepo) Save(ctx context.Context, tx repository.Tx, a *model.Avatar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAvatarRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Avatar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAvatarRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Avatar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Avatar, 0, len(m.byID))
	for _, a := range m.byID {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// ---- ratings ----

type memRatingRepo struct {
	mu   sync.Mutex
	rows []*model.Rating
}

var _ repository.RatingRepository = (*memRatingRepo)(nil)

func newMemRatingRepo() *memRatingRepo { return &memRatingRepo{} }

func (m *memRatingRepo) Save(ctx context.Context, tx repository.Tx, r *model.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRatingRepo) Leaderboard(ctx context.Context, tx repository.Tx, from, to time.Time, limit int) ([]*model.RatingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[string]int64{}
	for _, r := range m.rows {
		if !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			totals[r.UserID] += r.Score
		}
	}
	var out []*model.RatingEntry
	for id, total := range totals {
		out = append(out, &model.RatingEntry{UserID: id, Total: total})
	}
	return out, nil
}

// =============================
// Tx manager / locker / logger
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx provides a way to control transaction behavior during tests.
// By default, it runs the function immediately without a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", errors.New("locked")
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
