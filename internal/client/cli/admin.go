package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/services"
	"github.com/dmitrijs2005/taskdesk/internal/common"
)

const adminUsage = "admin [overview | users | tasks [search] | page <n> | promote <user> | demote <user> | deluser <user> | usertasks <user> [all|active|completed] | toggle <task>]"

// Admin runs one admin panel command. It requires the admin role.
func (a *App) Admin(ctx context.Context, args []string) error {
	if err := a.guard(access.RouteAdmin); err != nil {
		return err
	}

	sub := "overview"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	arg := func() (string, error) {
		if len(args) == 0 {
			return "", usageError("admin %s needs an argument", sub)
		}
		return args[0], nil
	}

	switch sub {
	case "overview":
		return a.adminOverview(ctx)
	case "users":
		return a.adminListUsers(ctx)
	case "tasks":
		return a.adminListTasks(ctx, strings.Join(args, " "))
	case "page":
		s, err := arg()
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return usageError("admin page <n>")
		}
		a.adminPage = n
		a.showAdminTasks()
		return nil
	case "promote", "demote", "deluser":
		ref, err := arg()
		if err != nil {
			return err
		}
		return a.adminUserAction(ctx, sub, ref)
	case "usertasks":
		ref, err := arg()
		if err != nil {
			return err
		}
		filter := models.FilterAll
		if len(args) > 1 {
			if filter, err = models.ParseStatusFilter(args[1]); err != nil {
				return err
			}
		}
		return a.adminUserTasks(ctx, ref, filter)
	case "toggle":
		ref, err := arg()
		if err != nil {
			return err
		}
		return a.adminToggle(ctx, ref)
	default:
		return usageError(adminUsage)
	}
}

func (a *App) adminOverview(ctx context.Context) error {
	ov, err := a.admin.Overview(ctx)
	if err != nil {
		return err
	}
	a.adminUsers = ov.Users
	a.adminTasks = ov.Tasks
	a.adminSearch = ""
	a.adminPage = 1

	renderUsers(a.out, a.adminUsers, a.selfID())
	fmt.Fprintln(a.out)
	a.showAdminTasks()
	return nil
}

func (a *App) adminListUsers(ctx context.Context) error {
	users, err := a.admin.Users(ctx)
	if err != nil {
		return err
	}
	a.adminUsers = users
	renderUsers(a.out, users, a.selfID())
	return nil
}

func (a *App) adminListTasks(ctx context.Context, search string) error {
	if a.adminTasks == nil {
		tasks, err := a.admin.AllTasks(ctx)
		if err != nil {
			return err
		}
		a.adminTasks = tasks
	}
	a.adminSearch = strings.TrimSpace(search)
	a.adminPage = 1
	a.showAdminTasks()
	return nil
}

func (a *App) adminUserAction(ctx context.Context, action, ref string) error {
	id := a.resolveUser(ref)

	var err error
	switch action {
	case "promote":
		err = a.admin.Promote(ctx, id)
	case "demote":
		err = a.admin.Demote(ctx, id)
	case "deluser":
		err = a.admin.DeleteUser(ctx, id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Done: %s %s\n", action, id)
	if action == "deluser" {
		// the user's tasks are gone too
		a.adminTasks = nil
	}
	return a.adminListUsers(ctx)
}

func (a *App) adminUserTasks(ctx context.Context, ref string, filter models.StatusFilter) error {
	tasks, err := a.admin.UserTasks(ctx, a.resolveUser(ref), filter)
	if err != nil {
		return err
	}
	renderAdminTasks(a.out, tasks, models.TaskPage{Page: 1, TotalPages: 1})
	return nil
}

func (a *App) adminToggle(ctx context.Context, ref string) error {
	page := a.adminTaskPage()
	id := ref
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(page.Items) {
		id = page.Items[n-1].ID
	}

	idx := -1
	for i, t := range a.adminTasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: task %q is not in the admin table", common.ErrNotFound, ref)
	}

	cur := a.adminTasks[idx]
	updated, err := a.admin.UpdateTask(ctx, id, models.TaskPatch{}.WithCompleted(!cur.Completed))
	if err != nil {
		return err
	}
	if updated.Owner.User == nil {
		updated.Owner = cur.Owner
	}
	a.adminTasks[idx] = updated
	fmt.Fprintf(a.out, "%q is now %s\n", updated.Title, updated.Status)
	return nil
}

func (a *App) adminTaskPage() models.TaskPage {
	return services.FilterAndPaginate(a.adminTasks, a.adminSearch, a.adminPage, services.AdminTasksPerPage)
}

func (a *App) showAdminTasks() {
	page := a.adminTaskPage()
	a.adminPage = page.Page
	renderAdminTasks(a.out, page.Items, page)
}

// resolveUser maps a row number of the last user listing to an id.
func (a *App) resolveUser(ref string) string {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(a.adminUsers) {
		return a.adminUsers[n-1].ID
	}
	return ref
}

func (a *App) selfID() string {
	if p := a.store.Snapshot().Principal; p != nil {
		return p.ID
	}
	return ""
}
