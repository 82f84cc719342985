package models

import (
	"errors"
	"strings"
)

type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	HasCV     bool       `json:"has_cv"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

func (u User) Validate() error {
	if u.ID <= 0 {
		return errors.New("user id missing")
	}
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("user email missing")
	}
	return nil
}

// AuthResponse is returned by both signup and login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

func (r *AuthResponse) Validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return errors.New("access_token missing")
	}
	if r.TokenType != "" && !strings.EqualFold(r.TokenType, "bearer") {
		return errors.New("unsupported token_type " + r.TokenType)
	}
	return r.User.Validate()
}

// Ack is the generic {"message": "..."} body of delete endpoints.
type Ack struct {
	Message string `json:"message,omitempty"`
}

func (a *Ack) Validate() error { return nil }
