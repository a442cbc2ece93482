package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/services"
	"github.com/dmitrijs2005/taskdesk/internal/common"
)

var (
	errPending         = errors.New("session is still loading")
	errLoginRequired   = fmt.Errorf("%w: please log in first", common.ErrNotAuthenticated)
	errAccessDenied    = fmt.Errorf("%w: this area requires the admin role", common.ErrPermissionDenied)
	errAlreadyLoggedIn = errors.New("already logged in, log out first")
	errUsage           = errors.New("usage")
)

// usageError reports wrong command arguments.
func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// Report prints err the way the user should see it. Superseded fetches are
// not errors from the user's point of view and are dropped.
func (a *App) Report(err error) {
	if err == nil || errors.Is(err, services.ErrSuperseded) {
		return
	}
	fmt.Fprintln(a.out, userMessage(err))
}

func userMessage(err error) string {
	var apiErr *client.APIError
	detail := err.Error()
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		detail = apiErr.Message
	}

	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Invalid credentials: " + detail
	case errors.Is(err, common.ErrAuthorizationLost):
		return "Authorization lost: " + detail
	case errors.Is(err, common.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, common.ErrPermissionDenied):
		return "Permission denied: " + detail
	case errors.Is(err, common.ErrNotFound):
		return "Not found: " + detail
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + detail
	case errors.Is(err, common.ErrNetworkOrServer):
		return "Network or server error: " + detail
	default:
		return "Error: " + detail
	}
}
