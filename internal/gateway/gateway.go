// Package gateway is the single outbound HTTP client for the service. It
// attaches the bearer token on credentialed routes, maps response statuses
// onto the typed error taxonomy, and reacts centrally to 401s.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"lexatlas/client/internal/session"

	"github.com/google/uuid"
)

// NavigateFunc receives the navigation intent emitted when a credentialed
// call comes back 401. The view layer decides what to do with it; the
// gateway itself performs no navigation.
type NavigateFunc func(target string)

type Gateway struct {
	baseURL    string
	httpClient *http.Client
	manager    *session.Manager

	navigate     NavigateFunc
	signInTarget string

	mu          sync.Mutex
	redirecting bool
}

// New creates a gateway. navigate may be nil; signInTarget is the route the
// navigation intent carries after a session-expiring 401.
func New(baseURL string, timeout time.Duration, manager *session.Manager, signInTarget string, navigate NavigateFunc) *Gateway {
	return &Gateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		manager:      manager,
		navigate:     navigate,
		signInTarget: signInTarget,
	}
}

// publicEndpoint is the one classification predicate for both credential
// attachment and 401 handling. Both halves of the gateway must observe the
// same answer for a route, so neither is allowed its own copy.
func publicEndpoint(method, path string) bool {
	switch {
	case method == http.MethodPost && path == "/auth/login":
		return true
	case method == http.MethodPost && path == "/auth/register":
		return true
	case strings.HasPrefix(path, "/dictionary/"):
		return true
	case strings.HasPrefix(path, "/semantic/"):
		return true
	}
	return false
}

// Do issues a request and decodes a 2xx JSON body into out (out may be nil).
// body, when non-nil, is sent as JSON. The bearer token is attached only on
// credentialed routes, and only when one exists.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	token := ""
	if !publicEndpoint(method, path) {
		token = g.manager.Token()
	}
	return g.do(ctx, method, path, token, body, out)
}

// DoAsBearer is Do with an explicit token, bypassing the session. It exists
// for the identity fetch during sign-in, before the token has been committed
// to the session.
func (g *Gateway) DoAsBearer(ctx context.Context, method, path, token string, body, out any) error {
	return g.do(ctx, method, path, token, body, out)
}

func (g *Gateway) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		g.handleUnauthorized(ctx, publicEndpoint(method, path))
		return responseError(resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	g.mu.Lock()
	g.redirecting = false
	g.mu.Unlock()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// handleUnauthorized is the one place 401s are handled. The session is
// always invalidated; the navigation intent fires only for credentialed
// routes (a 401 from a public route means a bad query, not an expired
// session) and at most once per burst of failures.
func (g *Gateway) handleUnauthorized(ctx context.Context, public bool) {
	g.manager.Invalidate(ctx)
	if public {
		return
	}

	g.mu.Lock()
	already := g.redirecting
	g.redirecting = true
	g.mu.Unlock()

	if already || g.navigate == nil {
		return
	}
	g.navigate(g.signInTarget)
}
