package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskPage_Invariants(t *testing.T) {
	items := []Task{{ID: "1"}, {ID: "2"}, {ID: "3", Completed: true}}

	p := NewTaskPage(items, 9, 2, 2, "q")
	assert.Len(t, p.Items, 2, "items capped at page size")
	assert.Equal(t, 2, p.Page, "page clamped to total pages")
	assert.Equal(t, "q", p.Search)

	p = NewTaskPage(nil, 0, 0, 10, "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.LastPage())
	assert.Empty(t, p.Items)
	assert.False(t, p.HasPrev())
	assert.False(t, p.HasNext())
}

func TestNewTaskPage_NormalizesAndCopies(t *testing.T) {
	items := []Task{{ID: "1", Completed: true, Status: TaskActive}}

	p := NewTaskPage(items, 1, 1, 10, "")
	assert.Equal(t, TaskCompleted, p.Items[0].Status)

	items[0].Title = "mutated"
	assert.Empty(t, p.Items[0].Title, "page must not alias the input slice")
}

func TestTaskPage_CloneAndIndexOf(t *testing.T) {
	p := NewTaskPage([]Task{{ID: "a"}, {ID: "b"}}, 1, 3, 10, "")
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.IndexOf("b"))
	assert.Equal(t, -1, p.IndexOf("zz"))

	c := p.Clone()
	c.Items[0].Title = "changed"
	assert.Empty(t, p.Items[0].Title)
}
