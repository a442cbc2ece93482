package access

import (
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
)

const (
	RouteHome      = "/"
	RouteActive    = "/active"
	RouteCompleted = "/completed"
	RouteAdmin     = "/admin"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
)

var routes = map[string]Requirement{
	RouteHome:      Authenticated(),
	RouteActive:    Authenticated(),
	RouteCompleted: Authenticated(),
	RouteAdmin:     Role(models.RoleAdmin),
	RouteLogin:     Guest(),
	RouteRegister:  Guest(),
}

// RequirementFor returns the requirement of route. Unknown routes report
// false.
func RequirementFor(route string) (Requirement, bool) {
	r, ok := routes[route]
	return r, ok
}

type MenuItem struct {
	Label string
	Route string
}

// MenuFor lists the navigation entries visible to s. The admin entry is
// present only for admins.
func MenuFor(s session.Snapshot) []MenuItem {
	if !s.IsAuthenticated() {
		return []MenuItem{
			{Label: "Login", Route: RouteLogin},
			{Label: "Register", Route: RouteRegister},
		}
	}

	items := []MenuItem{
		{Label: "All Tasks", Route: RouteHome},
		{Label: "Active", Route: RouteActive},
		{Label: "Completed", Route: RouteCompleted},
	}
	if s.HasRole(models.RoleAdmin) {
		items = append(items, MenuItem{Label: "Admin", Route: RouteAdmin})
	}
	return items
}
