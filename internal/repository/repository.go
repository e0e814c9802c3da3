package repository

import (
	"context"

	"github.com/the-auction-games/account-api/internal/domain"
)

// AccountRepository persists accounts. Implementations translate between the
// account shape and their backing store and nothing more: hashing passwords
// and enforcing email uniqueness belong to the service layer.
type AccountRepository interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, account *domain.Account) error
	DeleteAccount(ctx context.Context, id string) error
}
