// Package navigation tracks which view the user is on so the unauthorized
// policy knows whether a redirect to login is needed.
package navigation

import "sync"

type View string

const (
	ViewLogin       View = "login"
	ViewSignup      View = "signup"
	ViewDashboard   View = "dashboard"
	ViewUpload      View = "upload"
	ViewChat        View = "chat"
	ViewApplication View = "application"
	ViewHistory     View = "history"
	ViewProfile     View = "profile"
)

// IsAuth reports whether v is one of the unauthenticated entry views.
func (v View) IsAuth() bool {
	return v == ViewLogin || v == ViewSignup
}

type Router struct {
	mu         sync.Mutex
	current    View
	redirects  int
	onRedirect func(from View)
}

// NewRouter starts on the login view. onRedirect, if set, runs after every
// forced redirect with the view the user was on.
func NewRouter(onRedirect func(from View)) *Router {
	return &Router{current: ViewLogin, onRedirect: onRedirect}
}

func (r *Router) Show(v View) {
	r.mu.Lock()
	r.current = v
	r.mu.Unlock()
}

func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// RedirectToLogin moves to the login view. It is a no-op on auth views.
func (r *Router) RedirectToLogin() {
	r.mu.Lock()
	from := r.current
	if from.IsAuth() {
		r.mu.Unlock()
		return
	}
	r.current = ViewLogin
	r.redirects++
	cb := r.onRedirect
	r.mu.Unlock()

	if cb != nil {
		cb(from)
	}
}

// Redirects returns how many forced redirects happened.
func (r *Router) Redirects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirects
}
