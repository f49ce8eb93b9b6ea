package guard

import (
	"testing"

	"lexatlas/client/internal/rbac"
	"lexatlas/client/internal/session"

	"github.com/stretchr/testify/assert"
)

func snap(status session.Status, identity *session.Identity) session.Snapshot {
	return session.Snapshot{Status: status, Identity: identity}
}

func admin() *session.Identity {
	return &session.Identity{Email: "root@example.com", DisplayName: "root", Role: rbac.RoleAdmin}
}

func user() *session.Identity {
	return &session.Identity{Email: "ana@example.com", DisplayName: "ana", Role: rbac.RoleUser}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name string
		snap session.Snapshot
		req  Requirement
		want Decision
	}{
		{
			name: "open route renders for anonymous",
			snap: snap(session.StatusAnonymous, nil),
			req:  None(),
			want: Decision{Outcome: Render},
		},
		{
			name: "open route renders even while restoring",
			snap: snap(session.StatusRestoring, nil),
			req:  None(),
			want: Decision{Outcome: Render},
		},
		{
			name: "authenticated route pending while restoring",
			snap: snap(session.StatusRestoring, nil),
			req:  Authenticated(),
			want: Decision{Outcome: Pending},
		},
		{
			name: "authenticated route pending while unknown",
			snap: snap(session.StatusUnknown, nil),
			req:  Authenticated(),
			want: Decision{Outcome: Pending},
		},
		{
			name: "authenticated route renders for signed-in user",
			snap: snap(session.StatusAuthenticated, user()),
			req:  Authenticated(),
			want: Decision{Outcome: Render},
		},
		{
			name: "authenticated route redirects anonymous to sign-in",
			snap: snap(session.StatusAnonymous, nil),
			req:  Authenticated(),
			want: Decision{Outcome: Redirect, Target: SignInRoute},
		},
		{
			name: "role route pending while restoring",
			snap: snap(session.StatusRestoring, nil),
			req:  RequireRole(rbac.RoleAdmin),
			want: Decision{Outcome: Pending},
		},
		{
			name: "role route renders for matching role",
			snap: snap(session.StatusAuthenticated, admin()),
			req:  RequireRole(rbac.RoleAdmin),
			want: Decision{Outcome: Render},
		},
		{
			name: "role route sends wrong role home, not to sign-in",
			snap: snap(session.StatusAuthenticated, user()),
			req:  RequireRole(rbac.RoleAdmin),
			want: Decision{Outcome: Redirect, Target: HomeRoute},
		},
		{
			name: "role route redirects anonymous to sign-in",
			snap: snap(session.StatusAnonymous, nil),
			req:  RequireRole(rbac.RoleAdmin),
			want: Decision{Outcome: Redirect, Target: SignInRoute},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.snap, tc.req))
		})
	}
}

// No combination of requirement and identity may produce a redirect before
// the restore has resolved.
func TestNeverRedirectsWhileRestoring(t *testing.T) {
	requirements := []Requirement{
		Authenticated(),
		RequireRole(rbac.RoleAdmin),
		RequireRole(rbac.RoleUser),
	}
	for _, status := range []session.Status{session.StatusUnknown, session.StatusRestoring} {
		for _, req := range requirements {
			decision := Decide(snap(status, nil), req)
			assert.NotEqual(t, Redirect, decision.Outcome,
				"status %s must not redirect", status)
		}
	}
}
