// Package common defines shared constants and sentinel errors used across
// client layers of taskdesk. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Login or registration rejected by the server. Session state is unchanged.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// A request carrying a credential was answered with 401; the session
	// has been downgraded to anonymous.
	ErrAuthorizationLost = errors.New("authorization lost")

	// Any other transport or server failure. Transient, no state mutation.
	ErrNetworkOrServer = errors.New("network or server error")

	// Role requirement unmet.
	ErrPermissionDenied = errors.New("permission denied")

	// Operation needs an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)
