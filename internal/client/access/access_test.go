package access

import (
	"sync"
	"testing"

	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*************
 * Fake session source
 *************/

type fakeSource struct {
	mu   sync.Mutex
	snap session.Snapshot
	subs []func(session.Snapshot)
}

func (f *fakeSource) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) Subscribe(fn func(session.Snapshot)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	idx := len(f.subs) - 1
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.subs[idx] = nil
		f.mu.Unlock()
	}
}

func (f *fakeSource) set(s session.Snapshot) {
	f.mu.Lock()
	f.snap = s
	subs := append([]func(session.Snapshot){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(s)
		}
	}
}

func authed(role models.Role) session.Snapshot {
	return session.Snapshot{
		Status:     session.StatusAuthenticated,
		Credential: "t1",
		Principal:  &models.Principal{ID: "u1", Email: "a@b.com", Role: role},
	}
}

var anon = session.Snapshot{Status: session.StatusAnonymous}

/*************
 * tests
 *************/

func TestEvaluate(t *testing.T) {
	initializing := session.Snapshot{Status: session.StatusInitializing}

	cases := []struct {
		name string
		snap session.Snapshot
		req  Requirement
		want Decision
	}{
		{"none anonymous", anon, None(), Decision{Outcome: Allow}},
		{"none initializing", initializing, None(), Decision{Outcome: Allow}},
		{"auth anonymous", anon, Authenticated(), Decision{Outcome: RedirectLogin, Redirect: RouteLogin}},
		{"auth initializing", initializing, Authenticated(), Decision{Outcome: Pending}},
		{"auth user", authed(models.RoleUser), Authenticated(), Decision{Outcome: Allow}},
		{"admin as user", authed(models.RoleUser), Role(models.RoleAdmin), Decision{Outcome: PermissionDenied}},
		{"admin as anonymous", anon, Role(models.RoleAdmin), Decision{Outcome: RedirectLogin, Redirect: RouteLogin}},
		{"admin as admin", authed(models.RoleAdmin), Role(models.RoleAdmin), Decision{Outcome: Allow}},
		{"guest anonymous", anon, Guest(), Decision{Outcome: Allow}},
		{"guest authenticated", authed(models.RoleUser), Guest(), Decision{Outcome: RedirectHome, Redirect: RouteHome}},
		{"authenticated status without principal", session.Snapshot{Status: session.StatusAuthenticated}, Authenticated(), Decision{Outcome: RedirectLogin, Redirect: RouteLogin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.snap, tc.req))
		})
	}
}

func TestMenuFor(t *testing.T) {
	routesOf := func(items []MenuItem) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.Route)
		}
		return out
	}

	assert.Equal(t, []string{RouteLogin, RouteRegister}, routesOf(MenuFor(anon)))
	assert.NotContains(t, routesOf(MenuFor(authed(models.RoleUser))), RouteAdmin)
	assert.Contains(t, routesOf(MenuFor(authed(models.RoleAdmin))), RouteAdmin)
}

func TestNavigator_AdminRoute(t *testing.T) {
	src := &fakeSource{snap: authed(models.RoleUser)}
	nav := NewNavigator(src)

	v := nav.Navigate(RouteAdmin)
	assert.Equal(t, PermissionDenied, v.Outcome)
	assert.Equal(t, RouteAdmin, v.Route)
	assert.False(t, v.Allowed())

	src.set(anon)
	v = nav.Navigate(RouteAdmin)
	assert.Equal(t, RedirectLogin, v.Outcome)
	assert.Equal(t, RouteLogin, v.Route)
	assert.Equal(t, RouteAdmin, v.Requested)
}

func TestNavigator_UnknownRouteGoesHome(t *testing.T) {
	src := &fakeSource{snap: authed(models.RoleUser)}
	v := NewNavigator(src).Navigate("/nope")
	assert.Equal(t, RouteHome, v.Route)
	assert.True(t, v.Allowed())
}

func TestNavigator_WatchFollowsSession(t *testing.T) {
	src := &fakeSource{snap: session.Snapshot{Status: session.StatusInitializing}}
	nav := NewNavigator(src)

	var seen []View
	dispose := nav.Watch(func(v View) { seen = append(seen, v) })

	require.Equal(t, Pending, nav.Navigate(RouteHome).Outcome)

	src.set(authed(models.RoleUser))
	require.True(t, nav.Current().Allowed())
	assert.Equal(t, RouteHome, nav.Current().Route)

	// downgrade mid-session: the view becomes inaccessible at once
	src.set(anon)
	assert.Equal(t, RouteLogin, nav.Current().Route)
	assert.Equal(t, RedirectLogin, seen[len(seen)-1].Outcome)

	// login while on the login page moves home
	src.set(authed(models.RoleUser))
	assert.Equal(t, RouteHome, nav.Current().Route)
	assert.Equal(t, RedirectHome, nav.Current().Outcome)

	dispose()
	n := len(seen)
	src.set(anon)
	assert.Len(t, seen, n)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "permission-denied", PermissionDenied.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
