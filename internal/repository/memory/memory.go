// Package memory provides an in-process account store used by tests and as a
// local development backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/the-auction-games/account-api/internal/domain"
	"github.com/the-auction-games/account-api/internal/repository"
)

// Repository keeps accounts in a mutex-guarded map. Listings come back sorted
// by id so callers see a stable order.
type Repository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// New constructs an empty Repository.
func New() *Repository {
	return &Repository{accounts: make(map[string]domain.Account)}
}

var _ repository.AccountRepository = (*Repository)(nil)

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accounts := make([]domain.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if acc, ok := r.accounts[id]; ok {
		return &acc, nil
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id := range r.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if acc := r.accounts[id]; acc.Email == email {
			return &acc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = *account
	return nil
}

func (r *Repository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = *account
	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}
