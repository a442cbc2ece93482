package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
	"golang.org/x/sync/errgroup"
)

// AdminTasksPerPage is the page size of the admin all-tasks table.
const AdminTasksPerPage = 5

// SnapshotSource exposes the current session.
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// Overview is the admin panel's initial data.
type Overview struct {
	Users []models.Principal
	Tasks []models.Task
}

// Admin wraps the admin endpoints. It refuses to act on the signed-in
// principal's own account.
type Admin struct {
	api    client.AdminAPI
	src    SnapshotSource
	logger logging.Logger
}

func NewAdmin(api client.AdminAPI, src SnapshotSource, logger logging.Logger) *Admin {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Admin{api: api, src: src, logger: logger.With("component", "admin")}
}

func (a *Admin) Users(ctx context.Context) ([]models.Principal, error) {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (a *Admin) Promote(ctx context.Context, id string) error {
	if err := a.notSelf(id, "promote"); err != nil {
		return err
	}
	if err := a.api.PromoteUser(ctx, id); err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	a.logger.Info(ctx, "user promoted", "user", id)
	return nil
}

func (a *Admin) Demote(ctx context.Context, id string) error {
	if err := a.notSelf(id, "demote"); err != nil {
		return err
	}
	if err := a.api.DemoteUser(ctx, id); err != nil {
		return fmt.Errorf("demote user: %w", err)
	}
	a.logger.Info(ctx, "user demoted", "user", id)
	return nil
}

func (a *Admin) DeleteUser(ctx context.Context, id string) error {
	if err := a.notSelf(id, "delete"); err != nil {
		return err
	}
	if err := a.api.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	a.logger.Info(ctx, "user deleted", "user", id)
	return nil
}

// UserTasks lists the tasks of one user, narrowed by f.
func (a *Admin) UserTasks(ctx context.Context, userID string, f models.StatusFilter) ([]models.Task, error) {
	tasks, err := a.api.UserTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user tasks: %w", err)
	}
	return models.FilterTasks(tasks, f), nil
}

func (a *Admin) AllTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := a.api.AllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("all tasks: %w", err)
	}
	return tasks, nil
}

func (a *Admin) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}
	if patch.Completed != nil {
		patch = patch.WithCompleted(*patch.Completed)
	}
	t, err := a.api.AdminUpdateTask(ctx, id, patch)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// Overview loads users and all tasks concurrently.
func (a *Admin) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users, err := a.Users(ctx)
		out.Users = users
		return err
	})
	g.Go(func() error {
		tasks, err := a.AllTasks(ctx)
		out.Tasks = tasks
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

func (a *Admin) notSelf(id, action string) error {
	s := a.src.Snapshot()
	if s.Principal != nil && s.Principal.ID == id {
		return fmt.Errorf("%w: cannot %s your own account", common.ErrValidation, action)
	}
	return nil
}

// FilterAndPaginate narrows tasks to those whose title or description
// contains search (case-insensitive) and returns page of the result,
// perPage items each. The page is clamped into range.
func FilterAndPaginate(tasks []models.Task, search string, page, perPage int) models.TaskPage {
	if perPage < 1 {
		perPage = AdminTasksPerPage
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	matched := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if needle == "" ||
			strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle) {
			matched = append(matched, t)
		}
	}

	totalPages := (len(matched) + perPage - 1) / perPage
	page = min(max(page, 1), max(totalPages, 1))

	start := (page - 1) * perPage
	end := min(start+perPage, len(matched))
	return models.NewTaskPage(matched[start:end], page, totalPages, perPage, search)
}
