package api

import (
	"context"
	"net/http"

	"go-cvassist-client/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*models.AuthResponse, error) {
	req, err := jsonRequest(http.MethodPost, path, false, credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var out models.AuthResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
