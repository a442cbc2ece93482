// Package access decides whether the current session may see a route.
//
// Evaluate is a pure function of a session snapshot and a route
// requirement. Navigator keeps the route on screen and re-evaluates it on
// every navigation and every session change.
package access

import (
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/client/session"
)

type Kind int

const (
	KindNone Kind = iota
	KindAuthenticated
	KindRole
	// KindGuest routes are for anonymous sessions only (login, register).
	KindGuest
)

type Requirement struct {
	Kind Kind
	Role models.Role
}

func None() Requirement          { return Requirement{Kind: KindNone} }
func Authenticated() Requirement { return Requirement{Kind: KindAuthenticated} }
func Guest() Requirement         { return Requirement{Kind: KindGuest} }

// Role requires an authenticated principal with role r.
func Role(r models.Role) Requirement {
	return Requirement{Kind: KindRole, Role: r}
}

type Outcome int

const (
	Allow Outcome = iota
	// Pending means the session is still initializing.
	Pending
	RedirectLogin
	PermissionDenied
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect-login"
	case PermissionDenied:
		return "permission-denied"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

type Decision struct {
	Outcome Outcome
	// Redirect is the route to go to for redirect outcomes.
	Redirect string
}

// Evaluate applies req to the session s.
func Evaluate(s session.Snapshot, req Requirement) Decision {
	if req.Kind == KindNone {
		return Decision{Outcome: Allow}
	}
	if s.Status == session.StatusInitializing {
		return Decision{Outcome: Pending}
	}

	switch req.Kind {
	case KindGuest:
		if s.IsAuthenticated() {
			return Decision{Outcome: RedirectHome, Redirect: RouteHome}
		}
		return Decision{Outcome: Allow}
	case KindAuthenticated, KindRole:
		if !s.IsAuthenticated() {
			return Decision{Outcome: RedirectLogin, Redirect: RouteLogin}
		}
		if req.Kind == KindRole && s.Principal.Role != req.Role {
			return Decision{Outcome: PermissionDenied}
		}
		return Decision{Outcome: Allow}
	default:
		return Decision{Outcome: PermissionDenied}
	}
}
