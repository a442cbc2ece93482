package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/taskdesk/internal/client/models"
)

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func renderTasks(out io.Writer, items []models.Task, page models.TaskPage) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks.")
	} else {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tDONE\tID\tDUE\tTITLE")
		for i, t := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, checkbox(t.Completed), t.ID, dash(t.DueDate), t.Title)
		}
		_ = w.Flush()
	}
	renderPager(out, page)
}

func renderAdminTasks(out io.Writer, items []models.Task, page models.TaskPage) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks.")
	} else {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSTATUS\tID\tOWNER\tTITLE")
		for i, t := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, t.Status, t.ID, dash(t.Owner.Label()), t.Title)
		}
		_ = w.Flush()
	}
	renderPager(out, page)
}

func renderUsers(out io.Writer, users []models.Principal, selfID string) {
	if len(users) == 0 {
		fmt.Fprintln(out, "No users.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tNAME\tEMAIL\tROLE")
	for i, u := range users {
		name := u.DisplayName()
		if u.ID == selfID {
			name += " (you)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, u.ID, name, u.Email, u.Role)
	}
	_ = w.Flush()
}

func renderPager(out io.Writer, page models.TaskPage) {
	line := fmt.Sprintf("Page %d/%d", page.Page, page.LastPage())
	if page.Search != "" {
		line += fmt.Sprintf(" (search: %q)", page.Search)
	}
	fmt.Fprintln(out, line)
}
