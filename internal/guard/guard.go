// Package guard decides whether a view may render for the current session.
package guard

import (
	"lexatlas/client/internal/rbac"
	"lexatlas/client/internal/session"
)

// Routes handed out as redirect targets.
const (
	SignInRoute = "/login"
	HomeRoute   = "/home"
)

type Level int

const (
	// LevelNone renders for anyone.
	LevelNone Level = iota
	// LevelAuthenticated renders for any signed-in user.
	LevelAuthenticated
	// LevelRole renders only for a signed-in user holding Requirement.Role.
	LevelRole
)

// Requirement is a route's required authorization level.
type Requirement struct {
	Level Level
	Role  rbac.Role
}

func None() Requirement          { return Requirement{Level: LevelNone} }
func Authenticated() Requirement { return Requirement{Level: LevelAuthenticated} }
func RequireRole(role rbac.Role) Requirement {
	return Requirement{Level: LevelRole, Role: role}
}

type Outcome string

const (
	Render   Outcome = "render"
	Redirect Outcome = "redirect"
	Pending  Outcome = "pending"
)

// Decision is the guard's verdict. Target is set only for Redirect. A
// consumer must treat Pending as "wait", never as a redirect: acting on a
// redirect before restore resolves flashes the sign-in screen at users who
// hold a valid stored session.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Decide is pure: it reads only the snapshot and the requirement.
func Decide(snap session.Snapshot, req Requirement) Decision {
	if req.Level == LevelNone {
		return Decision{Outcome: Render}
	}

	switch snap.Status {
	case session.StatusUnknown, session.StatusRestoring:
		return Decision{Outcome: Pending}
	case session.StatusAnonymous:
		return Decision{Outcome: Redirect, Target: SignInRoute}
	}

	if req.Level == LevelRole {
		if snap.Identity == nil || snap.Identity.Role != req.Role {
			// Signed in but missing the role: send home. This user is
			// not unauthenticated, so the sign-in screen is wrong.
			return Decision{Outcome: Redirect, Target: HomeRoute}
		}
	}
	return Decision{Outcome: Render}
}
