package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/taskdesk/internal/common"
)

// ErrUnavailable marks transport-level failures (connection refused,
// timeouts, unreadable bodies). It matches common.ErrNetworkOrServer.
var ErrUnavailable = fmt.Errorf("%w: server unavailable", common.ErrNetworkOrServer)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	// Kind is the taxonomy sentinel the error unwraps to.
	Kind error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// kindForStatus maps an HTTP status onto the error taxonomy.
func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return common.ErrAuthorizationLost
	case http.StatusForbidden:
		return common.ErrPermissionDenied
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return common.ErrValidation
	default:
		return common.ErrNetworkOrServer
	}
}

// asCredentialsError re-labels a rejected login/register as
// ErrInvalidCredentials, keeping the server message. Transport failures and
// 5xx responses pass through unchanged.
func asCredentialsError(err error, fallback string) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Status >= 500 {
		return err
	}
	out := *apiErr
	out.Kind = common.ErrInvalidCredentials
	if out.Message == "" {
		out.Message = fallback
	}
	return &out
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
