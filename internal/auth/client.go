// Package auth is the client for the service's authentication endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lexatlas/client/internal/gateway"
	"lexatlas/client/internal/rbac"
	"lexatlas/client/internal/session"
)

type Client struct {
	gw *gateway.Gateway
}

func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. Public route: the gateway
// attaches no token even when one is live.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.gw.Do(ctx, http.MethodPost, "/auth/login", credentials{Login: login, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login response missing token")
	}
	return out.Token, nil
}

// Register creates an account. Public route.
func (c *Client) Register(ctx context.Context, login, password string, role rbac.Role) error {
	body := struct {
		Login    string    `json:"login"`
		Password string    `json:"password"`
		Role     rbac.Role `json:"role"`
	}{Login: login, Password: password, Role: role}
	return c.gw.Do(ctx, http.MethodPost, "/auth/register", body, nil)
}

// Me fetches the identity behind the session's current token.
func (c *Client) Me(ctx context.Context) (session.Identity, error) {
	var out meResponse
	if err := c.gw.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return session.Identity{}, err
	}
	return out.identity(), nil
}

// IdentityFetcher adapts the client for session.Manager enrichment: it
// fetches /auth/me with an explicit token and translates a 401 into
// session.ErrTokenRejected so a bad token fails sign-in instead of falling
// back to a minimal identity.
func (c *Client) IdentityFetcher() session.IdentityFetcher {
	return func(ctx context.Context, token string) (session.Identity, error) {
		var out meResponse
		err := c.gw.DoAsBearer(ctx, http.MethodGet, "/auth/me", token, nil, &out)
		if gateway.IsUnauthorized(err) {
			return session.Identity{}, fmt.Errorf("%w: %v", session.ErrTokenRejected, err)
		}
		if err != nil {
			return session.Identity{}, err
		}
		return out.identity(), nil
	}
}

type meResponse struct {
	Login string `json:"login"`
	Role  string `json:"role"`
}

func (r meResponse) identity() session.Identity {
	name := r.Login
	if at := strings.IndexByte(r.Login, '@'); at > 0 {
		name = r.Login[:at]
	}
	return session.Identity{
		Email:       r.Login,
		DisplayName: name,
		Role:        rbac.Normalize(r.Role),
	}
}
