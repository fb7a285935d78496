package services

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrEmptyUpdate        = errors.New("no fields provided for update")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// NotFoundError names the username that had no matching record.
type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user '%s' not found", e.Username)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(username string) error {
	return &NotFoundError{Username: username}
}
