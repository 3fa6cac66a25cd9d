package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// mockTxManager runs callbacks inline without a database.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

func (m *mockTxManager) WithUserLock(ctx context.Context, _ string, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type noopNotifier struct{}

func (noopNotifier) NotifyAdmin(ctx context.Context, title, body string) error { return nil }

// memUserRepo is a small in-memory implementation used by unit tests. Wallet
// arithmetic mirrors the guarded UPDATEs of the real store.
type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, _ repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.store {
		if existing.Phone == u.Phone && id != u.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByPhone(ctx context.Context, _ repository.Tx, phone string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByReferralCode(ctx context.Context, _ repository.Tx, code string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) List(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.User
	for _, u := range m.store {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memUserRepo) CountReferredBy(ctx context.Context, _ repository.Tx, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.store {
		if u.ReferrerID != nil && *u.ReferrerID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memUserRepo) SetPINHash(ctx context.Context, _ repository.Tx, userID, pinHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PINHash = &pinHash
	return nil
}

func (m *memUserRepo) ApplyEntry(ctx context.Context, _ repository.Tx, userID string, amount float64, consumeHold bool, investedDelta, returnsDelta float64) (float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return 0, 0, domain.ErrNotFound
	}
	newBalance := u.Wallet.Balance + amount
	newAvailable := u.Wallet.Available
	if !consumeHold {
		newAvailable += amount
	}
	if newBalance < 0 || newAvailable < 0 {
		return 0, 0, domain.ErrInsufficientBalance
	}
	u.Wallet.Balance = newBalance
	u.Wallet.Available = newAvailable
	u.Wallet.TotalInvested += investedDelta
	u.Wallet.TotalReturns += returnsDelta
	return newBalance, newAvailable, nil
}

func (m *memUserRepo) Hold(ctx context.Context, _ repository.Tx, userID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.Wallet.Available < amount {
		return domain.ErrInsufficientBalance
	}
	u.Wallet.Available -= amount
	return nil
}

func (m *memUserRepo) ReleaseHold(ctx context.Context, _ repository.Tx, userID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Wallet.Available += amount
	return nil
}

type memLedgerRepo struct {
	mu      sync.RWMutex
	entries []*model.LedgerEntry
}

func newMemLedgerRepo() *memLedgerRepo { return &memLedgerRepo{} }

func (m *memLedgerRepo) Insert(ctx context.Context, _ repository.Tx, e *model.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedgerRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string, offset, limit int) ([]*model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedgerRepo) SumByUserAndTypes(ctx context.Context, _ repository.Tx, userID string, types ...model.EntryType) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum float64
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		for _, t := range types {
			if e.Type == t {
				sum += e.Amount
			}
		}
	}
	return sum, nil
}

// byUserAndType is a test helper to pull out specific entries.
func (m *memLedgerRepo) byUserAndType(userID string, t model.EntryType) []*model.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.LedgerEntry
	for _, e := range m.entries {
		if e.UserID == userID && e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memPackageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Package
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{store: make(map[string]*model.Package)}
}

func (m *memPackageRepo) Save(ctx context.Context, _ repository.Tx, p *model.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPackageRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPackageRepo) List(ctx context.Context, _ repository.Tx, activeOnly bool) ([]*model.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Package
	for _, p := range m.store {
		if activeOnly && !p.IsActive() {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPackageRepo) SumRevenue(ctx context.Context, _ repository.Tx) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum float64
	for _, p := range m.store {
		sum += p.TotalRevenue
	}
	return sum, nil
}

func (m *memPackageRepo) IncrementCounters(ctx context.Context, _ repository.Tx, id string, revenue float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Subscribers++
	p.TotalRevenue += revenue
	return nil
}

type memSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *memSubscriptionRepo) Save(ctx context.Context, _ repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriptionRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) ListByStatus(ctx context.Context, _ repository.Tx, status model.SubscriptionStatus, offset, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == status {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) CountActivatedByUser(ctx context.Context, _ repository.Tx, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store {
		if s.UserID == userID &&
			(s.Status == model.SubscriptionStatusActive || s.Status == model.SubscriptionStatusCompleted) {
			n++
		}
	}
	return n, nil
}

func (m *memSubscriptionRepo) TransitionStatus(ctx context.Context, _ repository.Tx, id string, from, to model.SubscriptionStatus, processedBy *string, notes string) (bool, error) {
	if !model.CanTransition(from, to) {
		return false, domain.ErrInvalidTransition
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.ProcessedBy = processedBy
	s.AdminNotes = notes
	return true, nil
}

func (m *memSubscriptionRepo) RecordYield(ctx context.Context, _ repository.Tx, id string, amount float64, yieldDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.TotalEarnings += amount
	s.LastYieldDate = &yieldDate
	return nil
}

func (m *memSubscriptionRepo) ExpireOverduePending(ctx context.Context, _ repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusPendingPayment && s.ExpiresAt != nil && s.ExpiresAt.Before(now) {
			s.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memSubscriptionRepo) CountActiveByPackage(ctx context.Context, _ repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive {
			out[s.PackageName]++
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) CountByStatus(ctx context.Context, _ repository.Tx, status model.SubscriptionStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

type memYieldRepo struct {
	mu    sync.RWMutex
	store map[string]*model.DailyYield // keyed by subID + day
}

func newMemYieldRepo() *memYieldRepo {
	return &memYieldRepo{store: make(map[string]*model.DailyYield)}
}

func yieldKey(subID string, day time.Time) string {
	return subID + "|" + day.Format("2006-01-02")
}

func (m *memYieldRepo) InsertUnique(ctx context.Context, _ repository.Tx, y *model.DailyYield) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := yieldKey(y.SubscriptionID, y.YieldDate)
	if _, exists := m.store[k]; exists {
		return false, nil
	}
	cp := *y
	m.store[k] = &cp
	return true, nil
}

func (m *memYieldRepo) CountPaidBySubscription(ctx context.Context, _ repository.Tx, subscriptionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, y := range m.store {
		if y.SubscriptionID == subscriptionID && y.Amount > 0 {
			n++
		}
	}
	return n, nil
}

func (m *memYieldRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string, offset, limit int) ([]*model.DailyYield, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.DailyYield
	for _, y := range m.store {
		if y.UserID == userID {
			cp := *y
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memWithdrawalRepo struct {
	mu    sync.RWMutex
	store map[string]*model.WithdrawalRequest
}

func newMemWithdrawalRepo() *memWithdrawalRepo {
	return &memWithdrawalRepo{store: make(map[string]*model.WithdrawalRequest)}
}

func (m *memWithdrawalRepo) Save(ctx context.Context, _ repository.Tx, w *model.WithdrawalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := w.RequestedAt.Format("2006-01-02")
	for _, existing := range m.store {
		if existing.UserID == w.UserID && existing.Status == model.RequestStatusPending &&
			existing.RequestedAt.Format("2006-01-02") == day {
			return domain.ErrWithdrawalPending
		}
	}
	cp := *w
	m.store[w.ID] = &cp
	return nil
}

func (m *memWithdrawalRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWithdrawalRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string) ([]*model.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.WithdrawalRequest
	for _, w := range m.store {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memWithdrawalRepo) ListPending(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.WithdrawalRequest
	for _, w := range m.store {
		if w.Status == model.RequestStatusPending {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memWithdrawalRepo) Decide(ctx context.Context, _ repository.Tx, id string, to model.RequestStatus, processedBy string, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.store[id]
	if !ok || w.Status != model.RequestStatusPending {
		return false, nil
	}
	now := time.Now()
	w.Status = to
	w.ProcessedAt = &now
	w.ProcessedBy = &processedBy
	w.AdminNotes = notes
	return true, nil
}

func (m *memWithdrawalRepo) CountPending(ctx context.Context, _ repository.Tx) (int, error) {
	reqs, _ := m.ListPending(ctx, nil, 0, 0)
	return len(reqs), nil
}

type memDepositRepo struct {
	mu    sync.RWMutex
	store map[string]*model.DepositRequest
}

func newMemDepositRepo() *memDepositRepo {
	return &memDepositRepo{store: make(map[string]*model.DepositRequest)}
}

func (m *memDepositRepo) Save(ctx context.Context, _ repository.Tx, d *model.DepositRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.store[d.ID] = &cp
	return nil
}

func (m *memDepositRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.DepositRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDepositRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string) ([]*model.DepositRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.DepositRequest
	for _, d := range m.store {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memDepositRepo) ListPending(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.DepositRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.DepositRequest
	for _, d := range m.store {
		if d.Status == model.RequestStatusPending {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memDepositRepo) Decide(ctx context.Context, _ repository.Tx, id string, to model.RequestStatus, processedBy string, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok || d.Status != model.RequestStatusPending {
		return false, nil
	}
	now := time.Now()
	d.Status = to
	d.ProcessedAt = &now
	d.ProcessedBy = &processedBy
	d.AdminNotes = notes
	return true, nil
}

func (m *memDepositRepo) CountPending(ctx context.Context, _ repository.Tx) (int, error) {
	reqs, _ := m.ListPending(ctx, nil, 0, 0)
	return len(reqs), nil
}

type memGiftCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.GiftCode // keyed by code
}

func newMemGiftCodeRepo() *memGiftCodeRepo {
	return &memGiftCodeRepo{store: make(map[string]*model.GiftCode)}
}

func (m *memGiftCodeRepo) Insert(ctx context.Context, _ repository.Tx, g *model.GiftCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[g.Code]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *g
	m.store[g.Code] = &cp
	return nil
}

func (m *memGiftCodeRepo) FindByCode(ctx context.Context, _ repository.Tx, code string) (*model.GiftCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.store[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGiftCodeRepo) List(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.GiftCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.GiftCode
	for _, g := range m.store {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memGiftCodeRepo) Claim(ctx context.Context, _ repository.Tx, code, userID string, now time.Time) (*model.GiftCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.store[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	if !g.IsActive || g.IsRedeemed || !g.ExpiresAt.After(now) {
		return nil, domain.ErrCodeNotRedeemable
	}
	g.IsRedeemed = true
	g.RedeemedBy = &userID
	g.RedeemedAt = &now
	cp := *g
	return &cp, nil
}

type memNotificationRepo struct {
	mu    sync.RWMutex
	notes []*model.Notification
}

func newMemNotificationRepo() *memNotificationRepo { return &memNotificationRepo{} }

func (m *memNotificationRepo) Save(ctx context.Context, _ repository.Tx, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notes = append(m.notes, &cp)
	return nil
}

func (m *memNotificationRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string, offset, limit int) ([]*model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Notification
	for _, n := range m.notes {
		if n.UserID != nil && *n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) ListAdmin(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Notification
	for _, n := range m.notes {
		if n.UserID == nil {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) MarkRead(ctx context.Context, _ repository.Tx, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if n.ID == id && n.UserID != nil && *n.UserID == userID {
			now := time.Now()
			n.ReadAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memNotificationRepo) CountUnreadByUser(ctx context.Context, _ repository.Tx, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, note := range m.notes {
		if note.UserID != nil && *note.UserID == userID && note.ReadAt == nil {
			n++
		}
	}
	return n, nil
}
