// Package auth is the client for the /api/auth endpoints. The session cookie set by sign-in is kept
// in the shared httpclient jar, so other clients built on the same httpclient.Client are authenticated.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/MatheusAFD/mono-repo-auth/pkg/httpclient"
	"github.com/MatheusAFD/mono-repo-auth/pkg/result"
	"github.com/MatheusAFD/mono-repo-auth/pkg/sessions"
)

// Roles returned in User.Role.
const (
	RolePortal     = "portal"
	RoleBackoffice = "backoffice"
)

// User is the signed-in user.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Image         *string   `json:"image"`
	Role          string    `json:"role"`
	Banned        bool      `json:"banned"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SessionData is the body of sign-in, sign-up and get-session.
type SessionData struct {
	Session sessions.Session `json:"session"`
	User    User             `json:"user"`
}

// Client signs in and out.
type Client struct {
	http *httpclient.Client
}

// NewClient returns an auth client.
func NewClient(c *httpclient.Client) *Client {
	return &Client{http: c}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signOutResponse struct {
	Success bool `json:"success"`
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) result.Result[*SessionData] {
	return httpclient.Do[*SessionData](ctx, c.http, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/sign-in/email",
		Body:   signInRequest{Email: email, Password: password},
	})
}

// SignUp creates a portal account and signs it in.
func (c *Client) SignUp(ctx context.Context, name, email, password string) result.Result[*SessionData] {
	return httpclient.Do[*SessionData](ctx, c.http, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/sign-up/email",
		Body:   signUpRequest{Name: name, Email: email, Password: password},
	})
}

// GetSession returns the current session, or a nil value when signed out.
func (c *Client) GetSession(ctx context.Context) result.Result[*SessionData] {
	return httpclient.Do[*SessionData](ctx, c.http, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/api/auth/get-session",
	})
}

// SignOut ends the current session.
func (c *Client) SignOut(ctx context.Context) result.Result[bool] {
	res := httpclient.Do[signOutResponse](ctx, c.http, httpclient.Request{Method: http.MethodPost, Path: "/api/auth/sign-out"})
	return result.Map(res, func(v signOutResponse) bool { return v.Success })
}
