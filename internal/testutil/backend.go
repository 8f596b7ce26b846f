// Package testutil provides a fake StreamWeave control plane for tests:
// the auth endpoints the client consumes, with call counting and
// failure injection.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// Backend is an httptest server speaking the auth API.
type Backend struct {
	*httptest.Server

	// RefreshCalls counts POST /auth/refresh requests.
	RefreshCalls atomic.Int64
	// LogoutCalls counts POST /auth/logout requests.
	LogoutCalls atomic.Int64

	// RejectRefresh makes /auth/refresh answer 401.
	RejectRefresh atomic.Bool

	// RefreshDelay holds /auth/refresh responses open for this many
	// nanoseconds, so tests can pile up concurrent callers.
	RefreshDelay atomic.Int64

	// User is returned by /auth/me.
	User models.AuthUser

	issued atomic.Int64
}

// NewBackend starts a fake control plane. Callers own shutdown via Close.
func NewBackend() *Backend {
	b := &Backend{
		User: models.AuthUser{
			ID:    "user-1",
			Email: "dev@streamweave.dev",
			Name:  "Dev User",
		},
	}

	r := chi.NewRouter()
	r.Post("/auth/refresh", b.handleRefresh)
	r.Get("/auth/me", b.handleMe)
	r.Post("/auth/logout", b.handleLogout)

	b.Server = httptest.NewServer(r)
	return b
}

// IssuedToken returns the access token minted by refresh call n (1-based).
func (b *Backend) IssuedToken(n int64) string {
	return fmt.Sprintf("access-%d", n)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n := b.RefreshCalls.Add(1)

	if d := b.RefreshDelay.Load(); d > 0 {
		time.Sleep(time.Duration(d))
	}

	if b.RejectRefresh.Load() {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.issued.Store(n)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"accessToken":  b.IssuedToken(n),
		"refreshToken": fmt.Sprintf("refresh-%d", n),
	})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	legacy := r.Header.Get("X-Session-Token")
	if bearer == "" && legacy == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b.User)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.LogoutCalls.Add(1)
	w.WriteHeader(http.StatusNoContent)
}
