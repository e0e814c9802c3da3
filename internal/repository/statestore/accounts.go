// Package statestore persists accounts through a sidecar-hosted state store.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"log/slog"

	"github.com/the-auction-games/account-api/internal/domain"
	"github.com/the-auction-games/account-api/internal/repository"
	"github.com/the-auction-games/account-api/internal/sidecar"
)

// Repository implements the account port on the sidecar state-store protocol.
// Create and Update share the store's single upsert primitive; the service
// layer supplies the existence semantics that tell them apart.
type Repository struct {
	client *sidecar.Client
	logger *slog.Logger
}

// New constructs a Repository.
func New(client *sidecar.Client, logger *slog.Logger) *Repository {
	return &Repository{client: client, logger: logger}
}

var _ repository.AccountRepository = (*Repository)(nil)

// ListAccounts returns every stored account. Records that no longer decode are
// skipped rather than failing the whole listing.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	raws, err := r.client.Query(ctx, sidecar.All())
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]domain.Account, 0, len(raws))
	for _, raw := range raws {
		var acc domain.Account
		if err := json.Unmarshal(raw, &acc); err != nil {
			r.logger.Warn("skipping undecodable account record", "error", err)
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// GetAccountByID fetches one account by its store key.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	var acc domain.Account
	if err := r.client.Get(ctx, id, &acc); err != nil {
		if errors.Is(err, sidecar.ErrKeyNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &acc, nil
}

// GetAccountByEmail returns the first account matching an email equality
// filter. Email uniqueness is assumed here, not verified; later matches are
// ignored.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	raws, err := r.client.Query(ctx, sidecar.Equals("email", email))
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	for _, raw := range raws {
		var acc domain.Account
		if err := json.Unmarshal(raw, &acc); err != nil {
			r.logger.Warn("skipping undecodable account record", "error", err)
			continue
		}
		return &acc, nil
	}
	return nil, repository.ErrNotFound
}

// CreateAccount writes the account at its id.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := r.client.Set(ctx, account.ID, account); err != nil {
		return fmt.Errorf("create account %s: %w", account.ID, err)
	}
	return nil
}

// UpdateAccount rewrites the account at its id.
func (r *Repository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	if err := r.client.Set(ctx, account.ID, account); err != nil {
		return fmt.Errorf("update account %s: %w", account.ID, err)
	}
	return nil
}

// DeleteAccount removes the account stored at id.
func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}
