package repository

import "errors"

// ErrNotFound indicates an account was not located.
var ErrNotFound = errors.New("repository: not found")
