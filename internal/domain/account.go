package domain

import "github.com/the-auction-games/account-api/pkg/crypto"

// Account is the storage representation of a directory account. The id doubles
// as the state-store key and never changes after creation. Password only ever
// holds a hash; plaintext stops at the service layer.
type Account struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password crypto.PasswordHash `json:"password"`
}
