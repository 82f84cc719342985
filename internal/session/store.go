// Package session owns the authenticated session: the persisted token and
// user, the login/signup/logout lifecycle, and the 401 policy.
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"go-cvassist-client/internal/models"
	"go-cvassist-client/internal/navigation"
	"go-cvassist-client/internal/storage"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store holds the session in memory and mirrors every change to storage.
// It is the api client's token source and unauthorized handler.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	router  *navigation.Router
	token   string
	user    *models.User
}

// NewStore restores any persisted session. A token without a readable user
// is discarded.
func NewStore(st storage.Storage, router *navigation.Router) (*Store, error) {
	s := &Store{storage: st, router: router}

	token, ok, err := st.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	if !ok || token == "" {
		return s, nil
	}

	raw, ok, err := st.Get(KeyUser)
	if err != nil {
		return nil, fmt.Errorf("read session user: %w", err)
	}
	var user models.User
	if !ok || json.Unmarshal([]byte(raw), &user) != nil || user.Validate() != nil {
		log.Printf("⚠️ Stored session user unreadable, clearing session")
		if err := st.Remove(KeyToken, KeyUser); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return s, nil
	}

	s.token = token
	s.user = &user
	return s, nil
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the current user, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Save(token string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(KeyToken, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := s.storage.Set(KeyUser, string(data)); err != nil {
		// The token was already overwritten, so the previous session is gone.
		s.token = ""
		s.user = nil
		_ = s.storage.Remove(KeyToken, KeyUser)
		return fmt.Errorf("persist session user: %w", err)
	}
	s.token = token
	s.user = &user
	return nil
}

// Clear drops the in-memory session first so no later request can pick up
// the token even if storage fails.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if err := s.storage.Remove(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UpdateUser replaces the stored user. It is a no-op when logged out.
func (s *Store) UpdateUser(user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil
	}
	if err := s.storage.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("persist session user: %w", err)
	}
	s.user = &user
	return nil
}

func (s *Store) MarkHasCV(hasCV bool) error {
	u := s.User()
	if u == nil || u.HasCV == hasCV {
		return nil
	}
	u.HasCV = hasCV
	return s.UpdateUser(*u)
}

// HandleUnauthorized clears the session and sends the user back to login,
// unless they are already on an auth view.
func (s *Store) HandleUnauthorized() {
	if err := s.Clear(); err != nil {
		log.Printf("⚠️ %v", err)
	}
	if s.router != nil {
		s.router.RedirectToLogin()
	}
}
