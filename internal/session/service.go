package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-cvassist-client/internal/models"
	"go-cvassist-client/internal/validate"
)

var (
	// ErrBusy is returned when a login or signup is already in flight.
	ErrBusy = errors.New("authentication already in progress")
	// ErrExpired means the stored token expired before launch.
	ErrExpired = errors.New("session expired")
)

// Backend is the part of the api client the session lifecycle needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signup(ctx context.Context, email, password string) (*models.AuthResponse, error)
	CVStatus(ctx context.Context) (*models.CVStatus, error)
}

type Service struct {
	store    *Store
	backend  Backend
	inflight atomic.Bool
	now      func() time.Time
}

func NewService(store *Store, backend Backend) *Service {
	return &Service{store: store, backend: backend, now: time.Now}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email, err := validate.Login(email, password)
	if err != nil {
		return nil, err
	}
	return s.authenticate(ctx, func(ctx context.Context) (*models.AuthResponse, error) {
		return s.backend.Login(ctx, email, password)
	})
}

func (s *Service) Signup(ctx context.Context, email, password, confirm string) (*models.User, error) {
	email, err := validate.Signup(email, password, confirm)
	if err != nil {
		return nil, err
	}
	return s.authenticate(ctx, func(ctx context.Context) (*models.AuthResponse, error) {
		return s.backend.Signup(ctx, email, password)
	})
}

func (s *Service) authenticate(ctx context.Context, call func(context.Context) (*models.AuthResponse, error)) (*models.User, error) {
	if !s.inflight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.inflight.Store(false)

	resp, err := call(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(resp.AccessToken, resp.User); err != nil {
		return nil, err
	}
	return s.store.User(), nil
}

// Logout is local only and idempotent.
func (s *Service) Logout() error {
	return s.store.Clear()
}

func (s *Service) CurrentUser() *models.User {
	return s.store.User()
}

// ValidateOnLaunch checks a restored session against the backend with a
// single status call. It returns (nil, nil) when there is no session. Any
// failure leaves the session cleared.
func (s *Service) ValidateOnLaunch(ctx context.Context) (*models.User, error) {
	token := s.store.Token()
	if token == "" {
		return nil, nil
	}

	if tokenExpired(token, s.now()) {
		if err := s.store.Clear(); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	status, err := s.backend.CVStatus(ctx)
	if err != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			log.Printf("⚠️ %v", clearErr)
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if err := s.store.MarkHasCV(status.HasCV); err != nil {
		log.Printf("⚠️ Failed to refresh has_cv: %v", err)
	}
	return s.store.User(), nil
}

// tokenExpired reads exp from a JWT without verifying it. Opaque tokens and
// tokens without exp are left to the server.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
