package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/common"
)

func filterFor(route string) models.StatusFilter {
	switch route {
	case access.RouteActive:
		return models.FilterActive
	case access.RouteCompleted:
		return models.FilterCompleted
	default:
		return models.FilterAll
	}
}

// Open switches to the task view at route and lists it.
func (a *App) Open(ctx context.Context, route string) error {
	if err := a.guard(route); err != nil {
		return err
	}
	a.taskRoute = route
	return a.refreshAndShow(ctx)
}

// List refetches and prints the current task view.
func (a *App) List(ctx context.Context) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}
	return a.refreshAndShow(ctx)
}

// Search starts a new search from page 1. An empty term clears the search.
func (a *App) Search(ctx context.Context, term string) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}
	if _, err := a.tasks.SetSearch(ctx, strings.TrimSpace(term)); err != nil {
		return err
	}
	a.showTasks()
	return nil
}

// GoToPage moves to page n of the current search.
func (a *App) GoToPage(ctx context.Context, n int) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}
	if _, err := a.tasks.SetPage(ctx, n); err != nil {
		return err
	}
	a.showTasks()
	return nil
}

func (a *App) Next(ctx context.Context) error {
	return a.GoToPage(ctx, a.tasks.Page().Page+1)
}

func (a *App) Prev(ctx context.Context) error {
	return a.GoToPage(ctx, a.tasks.Page().Page-1)
}

// Add creates a task. An empty title is prompted for, as is the due date.
func (a *App) Add(ctx context.Context, title, due string) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}

	var err error
	if strings.TrimSpace(title) == "" {
		if title, err = getSimpleText(a.reader, "Enter title", a.out); err != nil {
			return err
		}
		if due, err = getSimpleText(a.reader, "Enter due date (YYYY-MM-DD, empty for none)", a.out); err != nil {
			return err
		}
	}

	t, err := a.tasks.AddTask(ctx, models.TaskDraft{Title: title, DueDate: due})
	if err != nil {
		if t.ID == "" {
			return err
		}
		a.Report(err)
	}
	fmt.Fprintf(a.out, "Added %q (%s)\n", t.Title, t.ID)
	a.showTasks()
	return nil
}

// Toggle flips the completion of the task referenced by ref.
func (a *App) Toggle(ctx context.Context, ref string) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}
	id, err := a.resolveTask(ctx, ref)
	if err != nil {
		return err
	}
	t, err := a.tasks.ToggleCompletion(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%q is now %s\n", t.Title, t.Status)
	return nil
}

// Edit prompts for new field values of the task referenced by ref. Empty
// answers keep the current value.
func (a *App) Edit(ctx context.Context, ref string) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}
	id, err := a.resolveTask(ctx, ref)
	if err != nil {
		return err
	}

	var patch models.TaskPatch
	if patch.Title, err = GetOptionalText(a.reader, "New title", a.out); err != nil {
		return err
	}
	if patch.Description, err = GetOptionalText(a.reader, "New description", a.out); err != nil {
		return err
	}
	if patch.DueDate, err = GetOptionalText(a.reader, "New due date (YYYY-MM-DD)", a.out); err != nil {
		return err
	}

	t, err := a.tasks.EditTask(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %q\n", t.Title)
	return nil
}

// Delete removes the task referenced by ref.
func (a *App) Delete(ctx context.Context, ref string) error {
	if err := a.guard(a.taskRoute); err != nil {
		return err
	}
	id, err := a.resolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

func (a *App) refreshAndShow(ctx context.Context) error {
	if _, err := a.tasks.Refresh(ctx); err != nil {
		return err
	}
	a.showTasks()
	return nil
}

func (a *App) showTasks() {
	page := a.tasks.Page()
	a.listed = a.tasks.View(filterFor(a.taskRoute))
	renderTasks(a.out, a.listed, page)
}

// resolveTask maps ref to a task id. ref is either a row number of the last
// listing or a task id; ids not on the current page are looked up page by
// page.
func (a *App) resolveTask(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", usageError("a task number or id is required")
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(a.listed) {
		return a.listed[n-1].ID, nil
	}

	page := a.tasks.Page()
	if page.IndexOf(ref) >= 0 {
		return ref, nil
	}
	for p := 1; p <= page.LastPage(); p++ {
		if p == page.Page {
			continue
		}
		got, err := a.tasks.SetPage(ctx, p)
		if err != nil {
			return "", err
		}
		if got.IndexOf(ref) >= 0 {
			return ref, nil
		}
	}
	return "", fmt.Errorf("%w: task %q", common.ErrNotFound, ref)
}
