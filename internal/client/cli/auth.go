package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
	"github.com/dmitrijs2005/taskdesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for name, email and password and creates an account.
// It does not log in; the user is sent to the login route.
func (a *App) Register(ctx context.Context) error {
	if err := a.guard(access.RouteRegister); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.store.Register(ctx, name, email, string(password)); err != nil {
		return err
	}

	a.nav.Navigate(access.RouteLogin)
	fmt.Fprintln(a.out, "Registration successful. You can log in now.")
	return nil
}

// Login prompts for credentials and establishes a session. On success the
// first task page is loaded.
func (a *App) Login(ctx context.Context) error {
	if err := a.guard(access.RouteLogin); err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.store.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", p.DisplayName())

	a.taskRoute = access.RouteHome
	a.nav.Navigate(access.RouteHome)
	if _, err := a.tasks.Refresh(ctx); err != nil {
		a.Report(err)
	}
	return nil
}

// Logout ends the session and forgets all loaded tasks.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	a.loggingOut = true
	err := a.store.Logout(ctx)
	a.loggingOut = false
	if err != nil {
		return err
	}
	a.nav.Navigate(access.RouteLogin)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Whoami prints the signed-in principal.
func (a *App) Whoami(ctx context.Context) error {
	snap := a.store.Snapshot()
	if !snap.IsAuthenticated() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	p := snap.Principal
	fmt.Fprintf(a.out, "%s <%s> role=%s id=%s\n", p.DisplayName(), p.Email, p.Role, p.ID)
	return nil
}

// Menu prints the routes available to the current session.
func (a *App) Menu(ctx context.Context) error {
	for _, it := range a.menu() {
		fmt.Fprintf(a.out, "  %-10s %s\n", it.Route, it.Label)
	}
	return nil
}
