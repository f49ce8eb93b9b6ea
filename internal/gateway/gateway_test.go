package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lexatlas/client/internal/rbac"
	"lexatlas/client/internal/session"
)

// memStore keeps the manager's session in memory for gateway tests.
type memStore struct {
	mu     sync.Mutex
	stored *session.StoredSession
}

func (m *memStore) Load(ctx context.Context) (*session.StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil, nil
	}
	copied := *m.stored
	return &copied, nil
}

func (m *memStore) Save(ctx context.Context, token string, identity session.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = &session.StoredSession{Token: token, Identity: identity}
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = nil
	return nil
}

type testEnv struct {
	gw       *Gateway
	manager  *session.Manager
	navMu    sync.Mutex
	navCalls []string
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	env := &testEnv{}
	env.manager = session.NewManager(&memStore{})
	env.manager.Restore(context.Background())
	env.gw = New(server.URL, 5*time.Second, env.manager, "/login", func(target string) {
		env.navMu.Lock()
		defer env.navMu.Unlock()
		env.navCalls = append(env.navCalls, target)
	})
	return env
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	identity := session.Identity{Email: "ana@example.com", DisplayName: "Ana", Role: rbac.RoleUser}
	if err := e.manager.SignIn(context.Background(), identity.Email, "tok-live", &identity); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func (e *testEnv) navigations() []string {
	e.navMu.Lock()
	defer e.navMu.Unlock()
	return append([]string(nil), e.navCalls...)
}

func TestBearerAttachedOnCredentialedRoute(t *testing.T) {
	var gotAuth string
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	env.signIn(t)

	if err := env.gw.Do(context.Background(), http.MethodGet, "/auth/me", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer tok-live" {
		t.Fatalf("Authorization = %q, want Bearer tok-live", gotAuth)
	}
}

func TestNoBearerOnPublicRoute(t *testing.T) {
	var gotAuth string
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	env.signIn(t)

	// Even a live token must not leak onto a public route.
	if err := env.gw.Do(context.Background(), http.MethodGet, "/dictionary/happy", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q on public route, want empty", gotAuth)
	}
}

func TestRequestIDAttached(t *testing.T) {
	var gotID string
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`{}`))
	}))

	if err := env.gw.Do(context.Background(), http.MethodGet, "/dictionary/happy", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotID == "" {
		t.Fatal("expected X-Request-Id header")
	}
}

func TestUnauthorizedCredentialedClearsSessionAndNavigates(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	env.signIn(t)

	err := env.gw.Do(context.Background(), http.MethodGet, "/courses", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}

	if env.manager.IsAuthenticated() {
		t.Fatal("401 must clear the session")
	}
	if nav := env.navigations(); len(nav) != 1 || nav[0] != "/login" {
		t.Fatalf("navigations = %v, want one /login intent", nav)
	}
}

func TestUnauthorizedPublicDoesNotNavigate(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	env.signIn(t)

	err := env.gw.Do(context.Background(), http.MethodGet, "/dictionary/happy", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}

	if nav := env.navigations(); len(nav) != 0 {
		t.Fatalf("navigations = %v, want none for a public-route 401", nav)
	}
}

func TestRepeated401sCollapseToOneNavigation(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	env.signIn(t)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = env.gw.Do(ctx, http.MethodGet, "/courses", nil, nil)
	}

	if nav := env.navigations(); len(nav) != 1 {
		t.Fatalf("navigations = %v, want exactly one", nav)
	}
}

func TestNavigationReArmsAfterSuccess(t *testing.T) {
	fail := true
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	env.signIn(t)
	ctx := context.Background()

	_ = env.gw.Do(ctx, http.MethodGet, "/courses", nil, nil)

	// A successful call (fresh sign-in) re-arms the intent for the next
	// session expiry.
	fail = false
	env.signIn(t)
	if err := env.gw.Do(ctx, http.MethodGet, "/courses", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}

	fail = true
	_ = env.gw.Do(ctx, http.MethodGet, "/courses", nil, nil)

	if nav := env.navigations(); len(nav) != 2 {
		t.Fatalf("navigations = %v, want two across two expiries", nav)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "validation message surfaced verbatim",
			status: http.StatusBadRequest,
			body:   `{"code":"INVALID_BODY","message":"title is required"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("err = %v, want APIError", err)
				}
				if apiErr.Message != "title is required" {
					t.Fatalf("message = %q, want server text verbatim", apiErr.Message)
				}
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				if !IsForbidden(err) {
					t.Fatalf("err = %v, want forbidden", err)
				}
				if IsRetryable(err) {
					t.Fatal("403 is not retryable")
				}
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				if !IsNotFound(err) {
					t.Fatalf("err = %v, want not found", err)
				}
			},
		},
		{
			name:   "server fault retryable",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				if !IsRetryable(err) {
					t.Fatalf("err = %v, want retryable", err)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				if tc.body != "" {
					w.Write([]byte(tc.body))
				}
			}))
			env.signIn(t)

			err := env.gw.Do(context.Background(), http.MethodGet, "/courses", nil, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)

			// Only 401 may touch the session.
			if !env.manager.IsAuthenticated() {
				t.Fatal("non-401 failure must not clear the session")
			}
		})
	}
}

func TestForbiddenKeepsSession(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	env.signIn(t)

	err := env.gw.Do(context.Background(), http.MethodDelete, "/courses/1", nil, nil)
	if !IsForbidden(err) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if !env.manager.IsAuthenticated() {
		t.Fatal("403 means authenticated-but-not-permitted; the session stays")
	}
}

func TestTransportErrorRetryableAndSessionUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	manager := session.NewManager(&memStore{})
	manager.Restore(context.Background())
	identity := session.Identity{Email: "ana@example.com", DisplayName: "Ana", Role: rbac.RoleUser}
	if err := manager.SignIn(context.Background(), identity.Email, "tok-live", &identity); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	gw := New(server.URL, time.Second, manager, "/login", nil)

	err := gw.Do(context.Background(), http.MethodGet, "/courses", nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if !IsRetryable(err) {
		t.Fatal("transport errors are retryable")
	}
	if !manager.IsAuthenticated() {
		t.Fatal("transport failure must not clear the session")
	}
}

func TestPublicEndpointPredicate(t *testing.T) {
	cases := []struct {
		method string
		path   string
		public bool
	}{
		{http.MethodPost, "/auth/login", true},
		{http.MethodPost, "/auth/register", true},
		{http.MethodGet, "/auth/me", false},
		{http.MethodGet, "/dictionary/happy", true},
		{http.MethodGet, "/semantic/word/happy", true},
		{http.MethodGet, "/semantic/word/happy/nested", true},
		{http.MethodGet, "/semantic/semantic-network/happy", true},
		{http.MethodGet, "/courses", false},
		{http.MethodPost, "/courses", false},
		{http.MethodDelete, "/courses/3", false},
	}
	for _, tc := range cases {
		if got := publicEndpoint(tc.method, tc.path); got != tc.public {
			t.Errorf("publicEndpoint(%s %s) = %v, want %v", tc.method, tc.path, got, tc.public)
		}
	}
}

func TestDecodesResponseBody(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"word":"happy"}`))
	}))

	var out struct {
		Word string `json:"word"`
	}
	if err := env.gw.Do(context.Background(), http.MethodGet, "/dictionary/happy", nil, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.Word != "happy" {
		t.Fatalf("decoded word = %q", out.Word)
	}
}
