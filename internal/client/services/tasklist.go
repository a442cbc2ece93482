package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
)

var (
	// ErrSuperseded is returned by a fetch whose result was discarded because
	// a newer fetch was issued while it was in flight.
	ErrSuperseded = errors.New("superseded by a newer fetch")

	ErrPageOutOfRange = fmt.Errorf("%w: page out of range", common.ErrValidation)
)

// SessionSource delivers session changes.
type SessionSource interface {
	Subscribe(fn func(session.Snapshot)) (dispose func())
}

// TaskList holds the current Task Page and issues the requests that change it.
type TaskList struct {
	api      client.TaskAPI
	logger   logging.Logger
	pageSize int

	seq atomic.Uint64

	mu   sync.Mutex
	page models.TaskPage
}

func NewTaskList(api client.TaskAPI, pageSize int, logger logging.Logger) *TaskList {
	if logger == nil {
		logger = logging.Discard()
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return &TaskList{
		api:      api,
		logger:   logger.With("component", "tasklist"),
		pageSize: pageSize,
		page:     models.TaskPage{Page: 1, PageSize: pageSize},
	}
}

// Bind clears the list whenever the session stops being authenticated.
func (l *TaskList) Bind(src SessionSource) (dispose func()) {
	return src.Subscribe(func(s session.Snapshot) {
		if !s.IsAuthenticated() {
			l.Reset()
		}
	})
}

// Page returns a copy of the current page.
func (l *TaskList) Page() models.TaskPage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page.Clone()
}

// View returns the current page items matching f.
func (l *TaskList) View(f models.StatusFilter) []models.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return models.FilterTasks(l.page.Items, f)
}

// Reset drops the page and discards any fetch still in flight.
func (l *TaskList) Reset() {
	l.seq.Add(1)

	l.mu.Lock()
	l.page = models.TaskPage{Page: 1, PageSize: l.pageSize}
	l.mu.Unlock()
}

// FetchPage requests one page and, unless a newer fetch has been issued
// meanwhile, replaces the whole Task Page with it. A stale success returns
// ErrSuperseded; a failure returns its error. Neither touches the page.
func (l *TaskList) FetchPage(ctx context.Context, page, size int, search string) (models.TaskPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = l.pageSize
	}

	seq := l.seq.Add(1)
	res, err := l.api.ListTasks(ctx, page, size, search)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		return l.page.Clone(), fmt.Errorf("fetch page %d: %w", page, err)
	}
	if seq != l.seq.Load() {
		l.logger.Debug(ctx, "discarding stale page", "seq", seq, "page", page)
		return l.page.Clone(), ErrSuperseded
	}

	l.page = models.NewTaskPage(res.Tasks, res.Page, res.TotalPages, size, search)
	return l.page.Clone(), nil
}

// SetSearch starts a new search from page 1.
func (l *TaskList) SetSearch(ctx context.Context, term string) (models.TaskPage, error) {
	return l.FetchPage(ctx, 1, l.currentSize(), term)
}

// SetPage moves to page n of the current search. Pages outside
// [1, LastPage] are rejected with ErrPageOutOfRange and nothing is sent.
func (l *TaskList) SetPage(ctx context.Context, n int) (models.TaskPage, error) {
	l.mu.Lock()
	cur := l.page
	l.mu.Unlock()

	if n < 1 || n > cur.LastPage() {
		return cur.Clone(), fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, cur.LastPage())
	}
	return l.FetchPage(ctx, n, l.sizeOf(cur), cur.Search)
}

// Refresh refetches the current page.
func (l *TaskList) Refresh(ctx context.Context) (models.TaskPage, error) {
	l.mu.Lock()
	cur := l.page
	l.mu.Unlock()

	return l.FetchPage(ctx, cur.Page, l.sizeOf(cur), cur.Search)
}

// AddTask creates a task and then refreshes the current page.
func (l *TaskList) AddTask(ctx context.Context, draft models.TaskDraft) (models.Task, error) {
	if err := draft.Validate(); err != nil {
		return models.Task{}, err
	}

	created, err := l.api.CreateTask(ctx, draft)
	if err != nil {
		return models.Task{}, fmt.Errorf("add task: %w", err)
	}

	if _, err := l.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return created, fmt.Errorf("task added, refresh failed: %w", err)
	}
	return created, nil
}

// ToggleCompletion flips the completion of a task on the current page.
func (l *TaskList) ToggleCompletion(ctx context.Context, id string) (models.Task, error) {
	t, err := l.item(id)
	if err != nil {
		return models.Task{}, err
	}
	return l.update(ctx, id, models.TaskPatch{}.WithCompleted(!t.Completed))
}

// EditTask applies patch to a task on the current page.
func (l *TaskList) EditTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}
	if _, err := l.item(id); err != nil {
		return models.Task{}, err
	}
	if patch.Completed != nil {
		patch = patch.WithCompleted(*patch.Completed)
	}
	return l.update(ctx, id, patch)
}

// DeleteTask deletes a task on the current page and removes it locally.
func (l *TaskList) DeleteTask(ctx context.Context, id string) error {
	if _, err := l.item(id); err != nil {
		return err
	}
	if err := l.api.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.page.IndexOf(id); i >= 0 {
		items := make([]models.Task, 0, len(l.page.Items)-1)
		items = append(items, l.page.Items[:i]...)
		items = append(items, l.page.Items[i+1:]...)
		l.page.Items = items
	}
	return nil
}

func (l *TaskList) update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	updated, err := l.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.page.IndexOf(id)
	if i < 0 {
		// replaced by a fetch while the update was in flight
		updated.Normalize()
		return updated, nil
	}

	local := l.page.Items[i]
	if updated.ID == id {
		local = updated
	} else {
		patch.Apply(&local)
	}
	local.Normalize()

	items := make([]models.Task, len(l.page.Items))
	copy(items, l.page.Items)
	items[i] = local
	l.page.Items = items
	return local, nil
}

func (l *TaskList) item(id string) (models.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.page.IndexOf(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: task %q is not on the current page", common.ErrNotFound, id)
	}
	return l.page.Items[i], nil
}

func (l *TaskList) currentSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sizeOf(l.page)
}

func (l *TaskList) sizeOf(p models.TaskPage) int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return l.pageSize
}
