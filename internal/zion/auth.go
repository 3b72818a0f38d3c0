package zion

import (
	"context"
	"fmt"
	"net/http"
)

// Login submits user credentials
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", reg, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &resp, nil
}

// Me fetches the profile the token belongs to
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &user); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &user, nil
}

// CompleteOnboarding submits the onboarding form of the current user
func (c *Client) CompleteOnboarding(ctx context.Context, data map[string]any) error {
	if err := c.doAuth(ctx, http.MethodPost, "/api/onboarding", data, nil); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	return nil
}

// AdminLogin submits admin panel credentials
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*AdminAuthResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp AdminAuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", "", body, &resp); err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	return &resp, nil
}

// AdminVerify checks an admin token against the backend
func (c *Client) AdminVerify(ctx context.Context, token string) (*Admin, error) {
	var admin Admin
	if err := c.do(ctx, http.MethodGet, "/api/admin/verify", token, nil, &admin); err != nil {
		return nil, fmt.Errorf("admin verify: %w", err)
	}
	return &admin, nil
}
