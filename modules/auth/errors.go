package auth

import (
	"errors"

	"github.com/example/task-manager/domain"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// RestoreError maps an auth error received over request-reply back onto its
// sentinel.
func RestoreError(err error) error {
	return domain.RestoreError(err,
		ErrInvalidCredentials, ErrInvalidEmail, ErrWeakPassword, ErrPasswordTooLong,
		ErrUserNotFound, ErrUserExists, ErrExpiredToken, ErrInvalidToken,
	)
}
