package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"lexatlas/client/internal/rbac"
)

// Status is the state of the session machine. Unknown and Restoring only
// occur before the one-time restore resolves; afterwards the session is
// always Authenticated or Anonymous.
type Status string

const (
	StatusUnknown       Status = "unknown"
	StatusRestoring     Status = "restoring"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Snapshot is a read-only view of the session for guards and views.
type Snapshot struct {
	Status   Status
	Identity *Identity
}

// IdentityFetcher retrieves the identity behind a freshly issued token,
// before that token has been committed to the session.
type IdentityFetcher func(ctx context.Context, token string) (Identity, error)

// ErrTokenRejected is returned by an IdentityFetcher when the service
// refused the token outright. Unlike other enrichment failures it makes
// sign-in fail: an invalid token must never produce an authenticated session.
var ErrTokenRejected = errors.New("token rejected by service")

// ErrEmptyToken is returned by SignIn when no token is supplied.
var ErrEmptyToken = errors.New("sign-in requires a token")

// Manager owns the session state machine. All mutation goes through its
// operations; every other component reads snapshots or requests
// invalidation through Invalidate.
type Manager struct {
	store Store

	mu       sync.Mutex
	status   Status
	token    string
	identity *Identity

	fetchIdentity IdentityFetcher
	restoreOnce   sync.Once
}

// NewManager creates a manager in the Unknown state. Restore must be called
// before guard decisions are trusted.
func NewManager(store Store) *Manager {
	return &Manager{store: store, status: StatusUnknown}
}

// SetIdentityFetcher installs the fetcher used to enrich token-only sign-ins.
// Wired once at startup; the fetcher usually calls the service's /auth/me.
func (m *Manager) SetIdentityFetcher(fetch IdentityFetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchIdentity = fetch
}

// Restore populates the session from the store. It runs at most once per
// manager; later calls return immediately. Store failures resolve to
// Anonymous, never to an error: a client that cannot read its state dir is
// signed out, not broken.
func (m *Manager) Restore(ctx context.Context) {
	m.restoreOnce.Do(func() {
		m.mu.Lock()
		m.status = StatusRestoring
		m.mu.Unlock()

		stored, err := m.store.Load(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil {
			log.Printf("session: restore failed, treating as signed out: %v", err)
			m.becomeAnonymousLocked()
			return
		}
		if stored == nil {
			m.becomeAnonymousLocked()
			return
		}
		identity := stored.Identity
		m.token = stored.Token
		m.identity = &identity
		m.status = StatusAuthenticated
	})
}

// SignIn commits a token to the session and persists it. When identity is
// nil the manager fetches it from the service; if that fetch fails for any
// reason other than token rejection, sign-in still succeeds with a minimal
// USER identity derived from login.
func (m *Manager) SignIn(ctx context.Context, login, token string, identity *Identity) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}

	if identity == nil {
		m.mu.Lock()
		fetch := m.fetchIdentity
		m.mu.Unlock()

		if fetch != nil {
			fetched, err := fetch(ctx, token)
			switch {
			case errors.Is(err, ErrTokenRejected):
				return err
			case err != nil:
				log.Printf("session: identity fetch failed, using fallback: %v", err)
			default:
				identity = &fetched
			}
		}
		if identity == nil {
			fallback := fallbackIdentity(login)
			identity = &fallback
		}
	}

	if err := m.store.Save(ctx, token, *identity); err != nil {
		// The session is still usable for this process; it just will
		// not survive a restart.
		log.Printf("session: persist failed: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.identity = identity
	m.status = StatusAuthenticated
	return nil
}

// SignOut clears the stored session and returns to Anonymous. Idempotent.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		log.Printf("session: clear failed: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.becomeAnonymousLocked()
}

// Invalidate has the same effect as SignOut. It exists for the gateway,
// which forces the session out when the service reports 401; it is never
// triggered by user action.
func (m *Manager) Invalidate(ctx context.Context) {
	log.Printf("session: invalidated by service")
	m.SignOut(ctx)
}

func (m *Manager) becomeAnonymousLocked() {
	m.token = ""
	m.identity = nil
	m.status = StatusAnonymous
}

// Snapshot returns a consistent view of the session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{Status: m.status}
	if m.identity != nil {
		identity := *m.identity
		snap.Identity = &identity
	}
	return snap
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusAuthenticated
}

// HasRole reports whether the session is authenticated as the given role.
func (m *Manager) HasRole(role rbac.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusAuthenticated && m.identity != nil && m.identity.Role == role
}

func fallbackIdentity(login string) Identity {
	name := login
	if at := strings.IndexByte(login, '@'); at > 0 {
		name = login[:at]
	}
	return Identity{Email: login, DisplayName: name, Role: rbac.RoleUser}
}
