package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/common"
)

type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
)

// StatusFor returns the status matching a completion flag.
func StatusFor(completed bool) TaskStatus {
	if completed {
		return TaskCompleted
	}
	return TaskActive
}

// Task is one item of the task collection. Completed and Status always agree
// after Normalize.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Completed   bool       `json:"completed"`
	DueDate     string     `json:"dueDate,omitempty"`
	Owner       Owner      `json:"user"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Normalize re-derives Status from Completed.
func (t *Task) Normalize() {
	t.Status = StatusFor(t.Completed)
}

// Owner is the task's user reference. The API sends either the bare user id
// or the embedded user record.
type Owner struct {
	ID   string
	User *Principal
}

func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = Owner{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*o = Owner{ID: id}
		return nil
	}

	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("task owner: %w", err)
	}
	*o = Owner{ID: p.ID, User: &p}
	return nil
}

func (o Owner) MarshalJSON() ([]byte, error) {
	if o.User != nil {
		return json.Marshal(o.User)
	}
	if o.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(o.ID)
}

// Label is a short owner description for listings.
func (o Owner) Label() string {
	if o.User != nil {
		return o.User.DisplayName()
	}
	return o.ID
}

// StatusFilter selects tasks by completion.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterActive    StatusFilter = "active"
	FilterCompleted StatusFilter = "completed"
)

// ParseStatusFilter maps user input onto a filter; empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown status filter %q", common.ErrValidation, s)
	}
}

func (f StatusFilter) Match(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// FilterTasks returns the tasks matching f, preserving order.
func FilterTasks(tasks []Task, f StatusFilter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
