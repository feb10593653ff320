package client

import (
	"context"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
)

// Login exchanges email and password for an access token and returns the
// decoded credential
func (c *Client) Login(ctx context.Context, input domain.LoginInput) (session.Credential, error) {
	cl, err := jsonCall("login", http.MethodPost, "/auth/login", input)
	if err != nil {
		return session.Credential{}, err
	}
	cl.public = true

	var resp domain.TokenResponse
	if err := c.send(ctx, cl, &resp); err != nil {
		return session.Credential{}, err
	}
	cred, err := session.FromToken(resp.AccessToken)
	if err != nil {
		return session.Credential{}, &domain.APIError{Kind: domain.ErrAuth, Detail: "login returned an unusable token", Err: err}
	}
	return cred, nil
}

// Register creates a user account
func (c *Client) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	cl, err := jsonCall("register", http.MethodPost, "/auth/register", input)
	if err != nil {
		return nil, err
	}
	cl.public = true

	var user domain.User
	if err := c.send(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DashboardOverview fetches the user, accounts, transactions and summary in one call
func (c *Client) DashboardOverview(ctx context.Context) (*domain.DashboardOverview, error) {
	var overview domain.DashboardOverview
	if err := c.doJSON(ctx, "dashboard_overview", http.MethodGet, "/dashboard/overview", nil, nil, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}
