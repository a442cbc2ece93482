package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSnapshot session.Snapshot

func (s staticSnapshot) Snapshot() session.Snapshot { return session.Snapshot(s) }

func adminSnapshot(id string) staticSnapshot {
	return staticSnapshot{
		Status:    session.StatusAuthenticated,
		Principal: &models.Principal{ID: id, Role: models.RoleAdmin},
	}
}

func newAdminEnv(t *testing.T) (*testutil.FakeAPI, *Admin, models.Principal) {
	t.Helper()
	fake := testutil.NewFakeAPI(t)
	root := fake.AddUser("Root", "root@example.com", "pw", models.RoleAdmin)

	gw, err := client.NewGateway(client.GatewayConfig{BaseURL: fake.BaseURL(), Timeout: 2 * time.Second})
	require.NoError(t, err)
	gw.SetCredential(fake.Token("root@example.com"))

	return fake, NewAdmin(client.NewHTTPClient(gw), adminSnapshot(root.ID), nil), root
}

func TestAdmin_SelfActionsRejectedWithoutRequest(t *testing.T) {
	fake, admin, root := newAdminEnv(t)
	ctx := context.Background()

	for name, fn := range map[string]func(context.Context, string) error{
		"promote": admin.Promote,
		"demote":  admin.Demote,
		"delete":  admin.DeleteUser,
	} {
		err := fn(ctx, root.ID)
		assert.ErrorIs(t, err, common.ErrValidation, name)
	}
	assert.Empty(t, fake.Requests())
}

func TestAdmin_ManageOtherUser(t *testing.T) {
	fake, admin, _ := newAdminEnv(t)
	bob := fake.AddUser("Bob", "bob@example.com", "pw", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, admin.Promote(ctx, bob.ID))
	got, _ := fake.User(bob.ID)
	assert.True(t, got.IsAdmin())

	require.NoError(t, admin.Demote(ctx, bob.ID))
	got, _ = fake.User(bob.ID)
	assert.False(t, got.IsAdmin())

	require.NoError(t, admin.DeleteUser(ctx, bob.ID))
	_, ok := fake.User(bob.ID)
	assert.False(t, ok)

	err := admin.DeleteUser(ctx, bob.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAdmin_UserTasksFilter(t *testing.T) {
	fake, admin, _ := newAdminEnv(t)
	bob := fake.AddUser("Bob", "bob@example.com", "pw", models.RoleUser)
	fake.AddTask(bob.ID, "open", false)
	fake.AddTask(bob.ID, "done", true)
	ctx := context.Background()

	all, err := admin.UserTasks(ctx, bob.ID, models.FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, err := admin.UserTasks(ctx, bob.ID, models.FilterCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "done", done[0].Title)

	open, err := admin.UserTasks(ctx, bob.ID, models.FilterActive)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "open", open[0].Title)
}

func TestAdmin_UpdateTask(t *testing.T) {
	fake, admin, _ := newAdminEnv(t)
	bob := fake.AddUser("Bob", "bob@example.com", "pw", models.RoleUser)
	tk := fake.AddTask(bob.ID, "open", false)
	ctx := context.Background()

	done := true
	got, err := admin.UpdateTask(ctx, tk.ID, models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, models.TaskCompleted, got.Status)

	_, err = admin.UpdateTask(ctx, tk.ID, models.TaskPatch{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAdmin_Overview(t *testing.T) {
	fake, admin, root := newAdminEnv(t)
	bob := fake.AddUser("Bob", "bob@example.com", "pw", models.RoleUser)
	fake.AddTask(bob.ID, "b1", false)
	fake.AddTask(root.ID, "r1", false)

	ov, err := admin.Overview(context.Background())
	require.NoError(t, err)
	assert.Len(t, ov.Users, 2)
	require.Len(t, ov.Tasks, 2)
	for _, tk := range ov.Tasks {
		require.NotNil(t, tk.Owner.User)
	}

	fake.Override(http.MethodGet, "/api/admin/tasks", testutil.Override{Status: http.StatusInternalServerError})
	_, err = admin.Overview(context.Background())
	assert.ErrorIs(t, err, common.ErrNetworkOrServer)
}

func TestAdmin_NonAdminDenied(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	bob := fake.AddUser("Bob", "bob@example.com", "pw", models.RoleUser)
	gw, err := client.NewGateway(client.GatewayConfig{BaseURL: fake.BaseURL(), Timeout: 2 * time.Second})
	require.NoError(t, err)
	gw.SetCredential(fake.Token("bob@example.com"))

	admin := NewAdmin(client.NewHTTPClient(gw), staticSnapshot{Status: session.StatusAuthenticated, Principal: &bob}, nil)
	_, err = admin.Users(context.Background())
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestFilterAndPaginate(t *testing.T) {
	var tasks []models.Task
	for i := 1; i <= 12; i++ {
		title := fmt.Sprintf("Task %02d", i)
		desc := ""
		if i%3 == 0 {
			desc = "Groceries run"
		}
		tasks = append(tasks, models.Task{ID: fmt.Sprint(i), Title: title, Description: desc})
	}
	idsOf := func(p models.TaskPage) []string { return ids(p) }

	p := FilterAndPaginate(tasks, "", 1, AdminTasksPerPage)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, idsOf(p))

	p = FilterAndPaginate(tasks, "", 3, AdminTasksPerPage)
	assert.Equal(t, []string{"11", "12"}, idsOf(p))

	p = FilterAndPaginate(tasks, "", 99, AdminTasksPerPage)
	assert.Equal(t, 3, p.Page)

	p = FilterAndPaginate(tasks, "GROCERIES", 1, AdminTasksPerPage)
	if diff := cmp.Diff([]string{"3", "6", "9", "12"}, idsOf(p)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, p.TotalPages)

	p = FilterAndPaginate(tasks, "task 1", 1, AdminTasksPerPage)
	assert.Equal(t, []string{"10", "11", "12"}, idsOf(p))

	p = FilterAndPaginate(tasks, "nothing", 2, 0)
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
}
