// Package account implements the directory's business rules on top of an
// account storage port.
package account

import (
	"context"
	"errors"

	"log/slog"

	"github.com/google/uuid"

	"github.com/the-auction-games/account-api/internal/domain"
	"github.com/the-auction-games/account-api/internal/repository"
	"github.com/the-auction-games/account-api/pkg/crypto"
)

var (
	// ErrEmailTaken reports a create against an email that already has an
	// account.
	ErrEmailTaken = errors.New("account: email already in use")
	// ErrInvalidCredentials reports a failed credential validation. Unknown
	// email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("account: invalid credentials")
)

// Service orchestrates account storage. It holds no mutable state and is safe
// to share across requests.
//
// The existence and uniqueness checks below are read-then-write sequences with
// no transaction underneath: two concurrent creates for the same email, or an
// update racing a delete, can both pass their check and both write. The
// storage protocol offers no conditional write, so uniqueness is advisory
// under concurrency.
type Service struct {
	accounts repository.AccountRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(accounts repository.AccountRepository, logger *slog.Logger) Service {
	return Service{accounts: accounts, logger: logger}
}

// List returns details for every stored account, in store order.
func (s Service) List(ctx context.Context) ([]Details, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]Details, 0, len(accounts))
	for _, acc := range accounts {
		details = append(details, detailsFromAccount(acc))
	}
	return details, nil
}

// GetByID returns details for the account at id, or repository.ErrNotFound.
func (s Service) GetByID(ctx context.Context, id string) (*Details, error) {
	acc, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := detailsFromAccount(*acc)
	return &d, nil
}

// GetByEmail returns details for the account with email, or
// repository.ErrNotFound.
func (s Service) GetByEmail(ctx context.Context, email string) (*Details, error) {
	acc, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	d := detailsFromAccount(*acc)
	return &d, nil
}

// Validate checks a credential pair against the stored hash and returns the
// account details on a match. The plaintext never leaves this call.
func (s Service) Validate(ctx context.Context, creds Credentials) (*Details, error) {
	acc, err := s.accounts.GetAccountByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := crypto.ComparePassword(acc.Password, creds.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	d := detailsFromAccount(*acc)
	return &d, nil
}

// Create registers a new account after an advisory email-uniqueness check,
// hashing the plaintext password on the way in. When the model carries no id
// one is generated.
func (s Service) Create(ctx context.Context, m Model) (*Details, error) {
	_, err := s.accounts.GetAccountByEmail(ctx, m.Email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	hash, err := crypto.HashPassword(m.Password)
	if err != nil {
		return nil, err
	}
	acc := &domain.Account{ID: id, Name: m.Name, Email: m.Email, Password: hash}
	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	s.logger.Info("account created", "account_id", acc.ID)
	d := detailsFromAccount(*acc)
	return &d, nil
}

// Update rewrites an existing account. A non-empty model password is hashed
// and replaces the stored hash; an empty one keeps it. Email uniqueness is
// deliberately not re-checked here, so an update may move an account onto an
// email another account already uses.
func (s Service) Update(ctx context.Context, m Model) error {
	existing, err := s.accounts.GetAccountByID(ctx, m.ID)
	if err != nil {
		return err
	}

	password := existing.Password
	if m.Password != "" {
		hash, err := crypto.HashPassword(m.Password)
		if err != nil {
			return err
		}
		password = hash
	}

	acc := &domain.Account{ID: existing.ID, Name: m.Name, Email: m.Email, Password: password}
	if err := s.accounts.UpdateAccount(ctx, acc); err != nil {
		return err
	}
	s.logger.Info("account updated", "account_id", acc.ID)
	return nil
}

// Delete removes the account at id, failing with repository.ErrNotFound when
// it does not exist.
func (s Service) Delete(ctx context.Context, id string) error {
	if _, err := s.accounts.GetAccountByID(ctx, id); err != nil {
		return err
	}
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", "account_id", id)
	return nil
}
