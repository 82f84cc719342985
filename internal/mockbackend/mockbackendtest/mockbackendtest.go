// Package mockbackendtest runs a mockbackend.Backend on an httptest server.
package mockbackendtest

import (
	"net/http/httptest"
	"testing"

	"go-cvassist-client/internal/mockbackend"
)

type Server struct {
	*mockbackend.Backend
	URL string
}

// New starts a backend and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	b := mockbackend.NewBackend()
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return &Server{Backend: b, URL: srv.URL}
}
