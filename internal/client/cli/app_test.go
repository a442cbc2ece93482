package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/config"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/services"
	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
	"github.com/dmitrijs2005/taskdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(api *testutil.FakeAPI, statePath string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = api.BaseURL()
	cfg.StatePath = statePath
	return cfg
}

// newTestApp builds an App against api with in-memory state. input feeds
// the interactive prompts.
func newTestApp(t *testing.T, cfg *config.Config, input string) (*App, *bytes.Buffer) {
	t.Helper()
	stubTerminal(t, false)

	var out bytes.Buffer
	a, err := NewApp(context.Background(), cfg, logging.Discard(), strings.NewReader(input), &out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func startedApp(t *testing.T, api *testutil.FakeAPI, input string) (*App, *bytes.Buffer) {
	t.Helper()
	a, out := newTestApp(t, testConfig(api, client.MemoryDSN), input)
	require.NoError(t, a.Start(context.Background()))
	return a, out
}

func loginAs(t *testing.T, a *App, email, password string) {
	t.Helper()
	_, err := a.store.Login(context.Background(), email, password)
	require.NoError(t, err)
}

func TestApp_GetStatus(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)

	a, _ := newTestApp(t, testConfig(api, client.MemoryDSN), "")
	assert.Equal(t, "(loading)", a.getStatus())

	require.NoError(t, a.Start(context.Background()))
	assert.Equal(t, "(anonymous)", a.getStatus())
	assert.False(t, a.isLoggedIn())

	loginAs(t, a, "alice@example.com", "pw")
	a.nav.Navigate(access.RouteHome)
	assert.Equal(t, "(Alice /)", a.getStatus())
}

func TestApp_LoginListToggleDelete(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	alice := api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)
	first := api.AddTask(alice.ID, "first", false)
	second := api.AddTask(alice.ID, "second", true)

	a, out := startedApp(t, api, "alice@example.com\npw\n")

	require.NoError(t, a.Login(ctx))
	assert.Contains(t, out.String(), "Welcome, Alice!")
	assert.True(t, a.isLoggedIn())

	require.NoError(t, a.List(ctx))
	require.Len(t, a.listed, 2)
	assert.Equal(t, second.ID, a.listed[0].ID, "newest first")
	assert.Contains(t, out.String(), "Page 1/1")

	require.NoError(t, a.Toggle(ctx, "2"))
	assert.Contains(t, out.String(), `"first" is now completed`)

	require.NoError(t, a.Delete(ctx, second.ID))
	assert.Contains(t, out.String(), "Deleted.")

	tasks := api.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.True(t, tasks[0].Completed)
}

func TestApp_LoginWithWrongPassword(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)

	a, out := startedApp(t, api, "alice@example.com\nnope\n")

	err := a.Login(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, a.isLoggedIn())

	a.Report(err)
	assert.Contains(t, out.String(), "Invalid credentials")
}

func TestApp_Register(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	a, out := startedApp(t, api, "Bob\nbob@example.com\nsecret\n")

	require.NoError(t, a.Register(context.Background()))
	assert.Contains(t, out.String(), "Registration successful")
	assert.False(t, a.isLoggedIn(), "registering does not log in")
	assert.Equal(t, access.RouteLogin, a.nav.Current().Route)
}

func TestApp_GuardedCommands(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)

	a, _ := startedApp(t, api, "")

	assert.ErrorIs(t, a.List(ctx), common.ErrNotAuthenticated)
	assert.ErrorIs(t, a.Admin(ctx, nil), common.ErrNotAuthenticated)
	assert.Zero(t, api.CountRequests("GET", "/api/tasks"))

	loginAs(t, a, "alice@example.com", "pw")

	assert.ErrorIs(t, a.Admin(ctx, nil), common.ErrPermissionDenied)
	assert.Zero(t, api.CountRequests("GET", "/api/admin/users"))
	assert.ErrorIs(t, a.Login(ctx), errAlreadyLoggedIn)
	assert.ErrorIs(t, a.Register(ctx), errAlreadyLoggedIn)
}

func TestApp_AuthorizationLost(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	alice := api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)
	api.AddTask(alice.ID, "first", false)

	a, out := startedApp(t, api, "")
	loginAs(t, a, "alice@example.com", "pw")
	require.NoError(t, a.List(ctx))

	api.Revoke(a.store.Snapshot().Credential)

	err := a.List(ctx)
	require.ErrorIs(t, err, common.ErrAuthorizationLost)
	assert.Contains(t, out.String(), "Your session has ended. Please log in again.")
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.listed)
	assert.Empty(t, a.tasks.Page().Items)

	a.Report(err)
	assert.Contains(t, out.String(), "Authorization lost")
}

func TestApp_Logout(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	alice := api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)
	api.AddTask(alice.ID, "first", false)

	a, out := startedApp(t, api, "")
	loginAs(t, a, "alice@example.com", "pw")
	require.NoError(t, a.List(ctx))
	require.NotEmpty(t, a.listed)

	require.NoError(t, a.Logout(ctx))
	assert.Contains(t, out.String(), "Logged out.")
	assert.NotContains(t, out.String(), "session has ended")
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.listed)
	assert.Empty(t, a.tasks.Page().Items)
	assert.Equal(t, "(anonymous)", a.getStatus())
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)
	cfg := testConfig(api, filepath.Join(t.TempDir(), "state.db"))

	first, _ := newTestApp(t, cfg, "")
	require.NoError(t, first.Start(context.Background()))
	loginAs(t, first, "alice@example.com", "pw")
	require.NoError(t, first.Close())

	second, _ := newTestApp(t, cfg, "")
	require.NoError(t, second.Start(context.Background()))
	assert.True(t, second.isLoggedIn())
	assert.Equal(t, 1, api.CountRequests("GET", "/api/auth/me"))
}

func TestApp_Pagination(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	alice := api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)
	for _, title := range []string{"one", "two", "three"} {
		api.AddTask(alice.ID, title, false)
	}

	cfg := testConfig(api, client.MemoryDSN)
	cfg.PageSize = 2
	a, out := newTestApp(t, cfg, "")
	require.NoError(t, a.Start(ctx))
	loginAs(t, a, "alice@example.com", "pw")

	require.NoError(t, a.List(ctx))
	assert.Contains(t, out.String(), "Page 1/2")

	require.NoError(t, a.Next(ctx))
	assert.Contains(t, out.String(), "Page 2/2")
	require.Len(t, a.listed, 1)
	assert.Equal(t, "one", a.listed[0].Title)

	assert.ErrorIs(t, a.Next(ctx), services.ErrPageOutOfRange)

	require.NoError(t, a.Search(ctx, "tw"))
	require.Len(t, a.listed, 1)
	assert.Equal(t, "two", a.listed[0].Title)
	assert.Contains(t, out.String(), `(search: "tw")`)

	require.NoError(t, a.Open(ctx, access.RouteCompleted))
	assert.Empty(t, a.listed)
}

func TestApp_AddTask(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	api.AddUser("Alice", "alice@example.com", "pw", models.RoleUser)

	a, out := startedApp(t, api, "prompted title\n2030-01-02\n")
	loginAs(t, a, "alice@example.com", "pw")

	require.NoError(t, a.Add(ctx, "buy milk", ""))
	require.NoError(t, a.Add(ctx, "", ""))
	assert.Contains(t, out.String(), `Added "buy milk"`)
	assert.Contains(t, out.String(), `Added "prompted title"`)

	tasks := api.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "2030-01-02", tasks[1].DueDate)

	assert.ErrorIs(t, a.Add(ctx, "later", "next week"), common.ErrValidation)
}

func TestApp_Admin(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	root := api.AddUser("Root", "root@example.com", "pw", models.RoleAdmin)
	bob := api.AddUser("Bob", "bob@example.com", "pw", models.RoleUser)
	task := api.AddTask(bob.ID, "bob's task", false)

	a, out := startedApp(t, api, "")
	loginAs(t, a, "root@example.com", "pw")

	require.NoError(t, a.Admin(ctx, nil))
	assert.Contains(t, out.String(), "Root (you)")
	assert.Contains(t, out.String(), "bob's task")

	require.NoError(t, a.Admin(ctx, []string{"toggle", task.ID}))
	assert.True(t, api.Tasks()[0].Completed)

	require.NoError(t, a.Admin(ctx, []string{"promote", bob.ID}))
	got, ok := api.User(bob.ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, got.Role)

	assert.ErrorIs(t, a.Admin(ctx, []string{"demote", root.ID}), common.ErrValidation)
	assert.ErrorIs(t, a.Admin(ctx, []string{"promote"}), errUsage)
	assert.ErrorIs(t, a.Admin(ctx, []string{"bogus"}), errUsage)

	require.NoError(t, a.Admin(ctx, []string{"deluser", bob.ID}))
	_, ok = api.User(bob.ID)
	assert.False(t, ok)
	assert.Empty(t, api.Tasks())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errLoginRequired, "Please log in first."},
		{errAccessDenied, "Permission denied"},
		{usageError("page <n>"), "usage: page <n>"},
		{&client.APIError{Status: 404, Message: "Task not found", Kind: common.ErrNotFound}, "Not found: Task not found"},
		{client.ErrUnavailable, "Network or server error"},
	}
	for _, tt := range tests {
		assert.Contains(t, userMessage(tt.err), tt.want)
	}
}

func TestReport_SkipsSuperseded(t *testing.T) {
	var out bytes.Buffer
	a := &App{out: &out}
	a.Report(services.ErrSuperseded)
	a.Report(nil)
	assert.Empty(t, out.String())
}
