package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/config"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/services"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger

	repos *client.Repositories
	gw    *client.Gateway
	store *session.Store
	nav   *access.Navigator
	tasks *services.TaskList
	admin *services.Admin

	reader *bufio.Reader
	out    io.Writer

	// taskRoute is the task view the list commands act on.
	taskRoute string
	// listed is the last rendered task listing; rows can be referenced by number.
	listed []models.Task
	// admin table state
	adminUsers  []models.Principal
	adminTasks  []models.Task
	adminSearch string
	adminPage   int

	authenticated bool
	loggingOut    bool

	disposers []func()
}

// NewApp opens local state and wires the client components. Call Start
// before issuing commands and Close when done.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	repos, err := client.InitDatabase(ctx, c.StatePath)
	if err != nil {
		return nil, fmt.Errorf("init state: %w", err)
	}

	gw, err := client.NewGateway(client.GatewayConfig{
		BaseURL: c.APIBaseURL,
		Timeout: c.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	api := client.NewHTTPClient(gw)

	store := session.NewStore(gw, api, repos.DB, logger, session.WithPassphrase(c.VaultPassphrase))
	store.Attach()

	a := &App{
		config:    c,
		logger:    logger,
		repos:     repos,
		gw:        gw,
		store:     store,
		nav:       access.NewNavigator(store),
		tasks:     services.NewTaskList(api, c.PageSize, logger),
		admin:     services.NewAdmin(api, store, logger),
		reader:    bufio.NewReader(in),
		out:       out,
		taskRoute: access.RouteHome,
		adminPage: 1,
	}

	a.disposers = append(a.disposers,
		a.tasks.Bind(store),
		store.Subscribe(a.onSessionChange),
		a.nav.Watch(a.onViewChange),
	)
	return a, nil
}

// Start restores the persisted session and loads the first task page when
// the session is authenticated.
func (a *App) Start(ctx context.Context) error {
	if err := a.store.Restore(ctx); err != nil {
		return err
	}

	if v := a.nav.Navigate(a.taskRoute); v.Allowed() {
		if _, err := a.tasks.Refresh(ctx); err != nil {
			a.Report(err)
		}
	}
	return nil
}

// Close detaches observers and releases local state.
func (a *App) Close() error {
	for i := len(a.disposers) - 1; i >= 0; i-- {
		a.disposers[i]()
	}
	a.disposers = nil
	a.store.Detach()
	return a.repos.Close()
}

func (a *App) isLoggedIn() bool {
	return a.store.Snapshot().IsAuthenticated()
}

func (a *App) menu() []access.MenuItem {
	return access.MenuFor(a.store.Snapshot())
}

// getStatus is the prompt decoration: "(name route)" or "(anonymous)".
func (a *App) getStatus() string {
	snap := a.store.Snapshot()
	switch {
	case snap.Status == session.StatusInitializing:
		return "(loading)"
	case snap.IsAuthenticated():
		return fmt.Sprintf("(%s %s)", snap.Principal.DisplayName(), a.nav.Current().Route)
	default:
		return "(anonymous)"
	}
}

func (a *App) onSessionChange(s session.Snapshot) {
	if a.authenticated && !s.IsAuthenticated() && !a.loggingOut {
		fmt.Fprintln(a.out, "Your session has ended. Please log in again.")
	}
	a.authenticated = s.IsAuthenticated()

	if !s.IsAuthenticated() {
		a.listed = nil
		a.adminUsers = nil
		a.adminTasks = nil
		a.adminSearch = ""
		a.adminPage = 1
		a.taskRoute = access.RouteHome
	}
}

func (a *App) onViewChange(v access.View) {
	a.logger.Debug(context.Background(), "route re-evaluated", "requested", v.Requested, "route", v.Route, "outcome", v.Outcome.String())
}

// guard navigates to route and reports whether the command may run.
func (a *App) guard(route string) error {
	v := a.nav.Navigate(route)
	switch v.Outcome {
	case access.Allow:
		return nil
	case access.Pending:
		return errPending
	case access.RedirectLogin:
		return errLoginRequired
	case access.PermissionDenied:
		return errAccessDenied
	case access.RedirectHome:
		return errAlreadyLoggedIn
	default:
		return errAccessDenied
	}
}
