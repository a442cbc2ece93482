package access

import (
	"sync"

	"github.com/dmitrijs2005/taskdesk/internal/client/session"
)

// SessionSource is the read side of the session store.
type SessionSource interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (dispose func())
}

// View is what the navigator currently shows.
type View struct {
	// Requested is the route the user asked for.
	Requested string
	// Route is the route rendered after following a redirect.
	Route string
	// Outcome is the decision for Requested.
	Outcome Outcome
}

// Allowed reports whether the requested route renders as asked.
func (v View) Allowed() bool {
	return v.Outcome == Allow
}

// Navigator tracks the current route and keeps it consistent with the
// session.
type Navigator struct {
	src SessionSource

	mu      sync.Mutex
	current View
}

func NewNavigator(src SessionSource) *Navigator {
	return &Navigator{src: src, current: View{Requested: RouteHome, Route: RouteHome, Outcome: Pending}}
}

// Navigate evaluates route against the current session and moves there,
// following at most one redirect. Unknown routes go home.
func (n *Navigator) Navigate(route string) View {
	snap := n.src.Snapshot()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = resolve(snap, route)
	return n.current
}

func (n *Navigator) Current() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Watch re-evaluates the current route on every session change and calls
// fn with the resulting view. The disposer stops watching.
func (n *Navigator) Watch(fn func(View)) (dispose func()) {
	return n.src.Subscribe(func(snap session.Snapshot) {
		n.mu.Lock()
		n.current = resolve(snap, n.current.Route)
		v := n.current
		n.mu.Unlock()

		if fn != nil {
			fn(v)
		}
	})
}

func resolve(snap session.Snapshot, route string) View {
	req, ok := RequirementFor(route)
	if !ok {
		route = RouteHome
		req, _ = RequirementFor(route)
	}

	d := Evaluate(snap, req)
	v := View{Requested: route, Route: route, Outcome: d.Outcome}
	if d.Redirect != "" {
		v.Route = d.Redirect
	}
	return v
}
