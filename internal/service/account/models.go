package account

import (
	"github.com/the-auction-games/account-api/internal/domain"
	"github.com/the-auction-games/account-api/pkg/crypto"
)

// Model is the write-side account shape. Password is plaintext supplied by the
// caller and is hashed before it reaches storage.
type Model struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password crypto.Plaintext `json:"password"`
}

// Details is the read-side projection handed back to callers. It carries no
// password in either form.
type Details struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials is an email and plaintext password pair used only for one-shot
// validation.
type Credentials struct {
	Email    string           `json:"email"`
	Password crypto.Plaintext `json:"password"`
}

func detailsFromAccount(acc domain.Account) Details {
	return Details{ID: acc.ID, Name: acc.Name, Email: acc.Email}
}
