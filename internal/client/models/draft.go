package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/common"
)

const dueDateLayout = "2006-01-02"

// TaskDraft is the input for creating a task.
type TaskDraft struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate,omitempty"`
}

// Validate trims the draft and checks the title and due date.
func (d *TaskDraft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.DueDate = strings.TrimSpace(d.DueDate)

	if d.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", common.ErrValidation)
	}
	return validateDueDate(d.DueDate)
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	// Status is set whenever Completed is, keeping both in step on the wire.
	Status *TaskStatus `json:"status,omitempty"`
}

// WithCompleted sets Completed and the matching Status.
func (p TaskPatch) WithCompleted(completed bool) TaskPatch {
	st := StatusFor(completed)
	p.Completed = &completed
	p.Status = &st
	return p
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Completed == nil
}

// Validate rejects empty patches, blank titles and malformed due dates.
func (p TaskPatch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: no fields to update", common.ErrValidation)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", common.ErrValidation)
	}
	if p.DueDate != nil {
		return validateDueDate(*p.DueDate)
	}
	return nil
}

// Apply copies the patch onto t and re-derives Status.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.Normalize()
}

func validateDueDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dueDateLayout, s); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return nil
	}
	return fmt.Errorf("%w: due date %q must be YYYY-MM-DD or RFC 3339", common.ErrValidation, s)
}
