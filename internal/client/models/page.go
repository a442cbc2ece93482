package models

// TaskPage is one page of the paginated, searchable task collection. It is
// replaced wholesale by every fetch.
type TaskPage struct {
	Items      []Task
	Page       int
	TotalPages int
	PageSize   int
	Search     string
}

// NewTaskPage builds a page holding the invariants len(items) <= size and
// 1 <= page <= max(totalPages, 1).
func NewTaskPage(items []Task, page, totalPages, size int, search string) TaskPage {
	if totalPages < 0 {
		totalPages = 0
	}
	if page < 1 {
		page = 1
	}
	if last := max(totalPages, 1); page > last {
		page = last
	}
	if size > 0 && len(items) > size {
		items = items[:size]
	}

	cp := make([]Task, len(items))
	copy(cp, items)
	for i := range cp {
		cp[i].Normalize()
	}

	return TaskPage{Items: cp, Page: page, TotalPages: totalPages, PageSize: size, Search: search}
}

// LastPage is max(TotalPages, 1).
func (p TaskPage) LastPage() int {
	return max(p.TotalPages, 1)
}

func (p TaskPage) HasPrev() bool { return p.Page > 1 }
func (p TaskPage) HasNext() bool { return p.Page < p.TotalPages }

// Clone returns a copy whose Items slice does not alias p's.
func (p TaskPage) Clone() TaskPage {
	cp := p
	cp.Items = make([]Task, len(p.Items))
	copy(cp.Items, p.Items)
	return cp
}

// IndexOf returns the position of the task with id, or -1.
func (p TaskPage) IndexOf(id string) int {
	for i, t := range p.Items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
