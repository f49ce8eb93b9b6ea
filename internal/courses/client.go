// Package courses is the client for the course CRUD endpoints. All of them
// are credentialed; mutations additionally require the ADMIN role, which the
// client checks before issuing the call (the server enforces it regardless).
package courses

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"lexatlas/client/internal/gateway"
	"lexatlas/client/internal/rbac"
	"lexatlas/client/internal/session"
)

type Difficulty string

const (
	Beginner     Difficulty = "BEGINNER"
	Intermediate Difficulty = "INTERMEDIATE"
	Advanced     Difficulty = "ADVANCED"
)

type Course struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
}

// CourseInput is the mutable subset sent on create and update.
type CourseInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
}

// ErrAdminRequired is returned for mutations attempted without the ADMIN
// role, before any request is issued.
var ErrAdminRequired = errors.New("admin role required")

type Client struct {
	gw      *gateway.Gateway
	manager *session.Manager
}

func NewClient(gw *gateway.Gateway, manager *session.Manager) *Client {
	return &Client{gw: gw, manager: manager}
}

func (c *Client) List(ctx context.Context) ([]Course, error) {
	var out []Course
	err := c.gw.Do(ctx, http.MethodGet, "/courses", nil, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id int64) (Course, error) {
	var out Course
	err := c.gw.Do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", id), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, in CourseInput) (Course, error) {
	if err := c.requireAdmin(); err != nil {
		return Course{}, err
	}
	var out Course
	err := c.gw.Do(ctx, http.MethodPost, "/courses", in, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id int64, in CourseInput) (Course, error) {
	if err := c.requireAdmin(); err != nil {
		return Course{}, err
	}
	var out Course
	err := c.gw.Do(ctx, http.MethodPut, fmt.Sprintf("/courses/%d", id), in, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	return c.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d", id), nil, nil)
}

func (c *Client) requireAdmin() error {
	snap := c.manager.Snapshot()
	if snap.Status != session.StatusAuthenticated || snap.Identity == nil ||
		!rbac.Can(snap.Identity.Role, rbac.ActionMutate) {
		return ErrAdminRequired
	}
	return nil
}
