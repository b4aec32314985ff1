// Package memory provides process-local stores used for development runs
// and tests. Quota updates follow the same rules as the PostgreSQL stores.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/quota"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type accountEntry struct {
	mu      sync.Mutex
	account model.Account
}

// AccountRepository keeps accounts in memory. Each account has its own lock,
// so quota updates on different accounts never contend.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*accountEntry
	byEmail map[string]uuid.UUID
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[uuid.UUID]*accountEntry),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *AccountRepository) Create(_ context.Context, account model.Account) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.Email = model.NormalizeEmail(account.Email)
	if _, ok := r.byEmail[account.Email]; ok {
		return model.Account{}, model.ErrEmailTaken
	}
	if _, ok := r.byID[account.ID]; ok {
		return model.Account{}, model.ErrEmailTaken
	}

	r.byID[account.ID] = &accountEntry{account: account}
	r.byEmail[account.Email] = account.ID

	return account, nil
}

func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	entry, ok := r.entry(id)
	if !ok {
		return model.Account{}, model.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[model.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) MarkVerified(_ context.Context, id uuid.UUID) error {
	entry, ok := r.entry(id)
	if !ok {
		return model.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.account.Verified = true
	entry.account.UpdatedAt = time.Now()
	return nil
}

func (r *AccountRepository) ConsumeQuota(_ context.Context, id uuid.UUID, now time.Time) (model.QuotaDecision, error) {
	entry, ok := r.entry(id)
	if !ok {
		return model.QuotaDecision{}, model.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	decision, next := quota.CheckAndConsume(entry.account, now)
	if decision.Consumed {
		entry.account = next
	}
	return decision, nil
}

func (r *AccountRepository) RefundQuota(_ context.Context, id uuid.UUID, windowStart time.Time) error {
	entry, ok := r.entry(id)
	if !ok {
		return model.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.account = quota.Refund(entry.account, windowStart)
	return nil
}

// Put replaces a stored account. It exists for seeding fixtures.
func (r *AccountRepository) Put(account model.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.Email = model.NormalizeEmail(account.Email)
	if entry, ok := r.byID[account.ID]; ok {
		entry.mu.Lock()
		delete(r.byEmail, entry.account.Email)
		entry.account = account
		entry.mu.Unlock()
	} else {
		r.byID[account.ID] = &accountEntry{account: account}
	}
	r.byEmail[account.Email] = account.ID
}

func (r *AccountRepository) exists(id uuid.UUID) bool {
	_, ok := r.entry(id)
	return ok
}

func (r *AccountRepository) entry(id uuid.UUID) (*accountEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[id]
	return entry, ok
}
