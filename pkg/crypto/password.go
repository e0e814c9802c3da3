package crypto

import "golang.org/x/crypto/bcrypt"

// Plaintext is a caller-supplied password that has not been hashed yet. It must
// never be persisted or logged.
type Plaintext string

// PasswordHash is a bcrypt digest and the only password form storage sees.
type PasswordHash string

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain Plaintext) (PasswordHash, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return PasswordHash(hash), nil
}

// ComparePassword compares plaintext to a stored digest in constant time.
func ComparePassword(hash PasswordHash, plain Plaintext) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
