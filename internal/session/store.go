// Package session owns the client session: its durable stores and the
// in-memory state machine that every other component reads.
package session

import (
	"context"

	"lexatlas/client/internal/rbac"
)

// Identity is the signed-in user as reported by the service.
type Identity struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	Role        rbac.Role `json:"role"`
}

// StoredSession is the persisted token+identity pair. The two halves are
// always written and cleared together; a pair missing either half is corrupt
// and must be discarded whole.
type StoredSession struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

func (s StoredSession) valid() bool {
	return s.Token != "" && s.Identity.Email != ""
}

// Store is the durable medium for the current session.
type Store interface {
	// Load returns the stored session, or nil when none is stored. A
	// corrupt pair is cleared as a side effect and reported as nil.
	Load(ctx context.Context) (*StoredSession, error)
	Save(ctx context.Context, token string, identity Identity) error
	Clear(ctx context.Context) error
}
