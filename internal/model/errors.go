// Package model defines the persistent record types and the sentinel errors
// shared between repositories, services and the HTTP layer. Handlers never
// inspect SQL errors directly; repositories translate them into these
// sentinels and the central error handler maps them to status codes.
package model

import "errors"

var (
	// ErrValidation marks missing or malformed input. Wrap it with the
	// offending field, e.g. fmt.Errorf("%w: title is required", ErrValidation).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountSuspended blocks login for suspended users regardless of
	// whether the password was correct.
	ErrAccountSuspended = errors.New("account suspended")

	// ErrEmailTaken and ErrUsernameTaken surface the unique constraints on
	// the users table.
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")

	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("repair request not found")
	ErrQuoteNotFound   = errors.New("quote not found")

	// ErrRequestClosed means the request is no longer accepting quotes
	// (its status is not open).
	ErrRequestClosed = errors.New("request no longer accepting quotes")

	// ErrForbidden is returned when the caller's role or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("forbidden")
)
