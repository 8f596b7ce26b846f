// Package auth owns the client-held authentication session: the
// access/refresh token pair, proactive renewal, and the single-flight
// refresh discipline.
//
// Contract:
//   - Store persists a pair and (re)arms the renewal timer.
//   - ValidToken returns the cached access token when it is comfortably
//     fresh, and otherwise awaits exactly one shared refresh.
//   - Refresh never retries itself; on failure it clears all tokens and
//     signals session termination to dependents.
//
// The Manager is the only component permitted to mutate the stored pair.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Lifetime of a freshly stored access token. Default 60m.
	Lifetime time.Duration
	// Buffer before expiry at which renewal kicks in. Default 5m.
	Buffer time.Duration
	// OnSessionEnd is invoked once when a refresh failure terminates the
	// session (tokens already cleared). Optional.
	OnSessionEnd func(err error)
	// Now overrides the clock. Tests only; defaults to time.Now.
	Now func() time.Time
}

// Manager is the token lifecycle manager.
type Manager struct {
	api  *Client
	opts ManagerOptions
	sf   singleflight.Group

	mu     sync.Mutex
	pair   *models.TokenPair
	timer  *time.Timer
	closed bool
}

// NewManager creates a Manager around the given auth API client.
func NewManager(api *Client, opts ManagerOptions) *Manager {
	if opts.Lifetime <= 0 {
		opts.Lifetime = 60 * time.Minute
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{api: api, opts: opts}
}

// Store persists a token pair, stamps its expiry, and re-arms the renewal
// timer at expiry minus the buffer.
func (m *Manager) Store(accessToken, refreshToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	now := m.opts.Now()
	m.pair = &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(m.opts.Lifetime),
	}

	if m.timer != nil {
		m.timer.Stop()
	}
	delay := m.opts.Lifetime - m.opts.Buffer
	if delay < 0 {
		delay = 0
	}
	m.timer = time.AfterFunc(delay, m.renewInBackground)

	log.Debug().
		Time("expires_at", m.pair.ExpiresAt).
		Dur("renew_in", delay).
		Msg("Token pair stored")
}

// ValidToken returns an access token that is safe to use right now.
// If the cached token is inside the renewal buffer it triggers a refresh
// and awaits it; otherwise it returns immediately with no network call.
func (m *Manager) ValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.pair == nil {
		m.mu.Unlock()
		return "", ErrUnauthenticated
	}
	if m.pair.ExpiresAt.Sub(m.opts.Now()) >= m.opts.Buffer {
		token := m.pair.AccessToken
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new pair. Single-flight:
// concurrent callers share one network call and one result. On failure
// the session is cleared and OnSessionEnd fires; the caller decides
// whether and how to retry.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.sf.Do("refresh", func() (interface{}, error) {
		m.mu.Lock()
		if m.pair == nil || m.pair.RefreshToken == "" {
			m.mu.Unlock()
			return "", ErrUnauthenticated
		}
		refreshToken := m.pair.RefreshToken
		m.mu.Unlock()

		ctx, span := otel.Tracer("auth").Start(ctx, "auth.refresh")
		defer span.End()

		access, refresh, callErr := m.api.Refresh(ctx, refreshToken)
		if callErr != nil {
			log.Warn().Err(callErr).Msg("Token refresh failed, ending session")
			m.Clear()
			if m.opts.OnSessionEnd != nil {
				m.opts.OnSessionEnd(callErr)
			}
			return "", callErr
		}

		m.Store(access, refresh)
		log.Debug().Msg("🔑 Token pair refreshed")
		return access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Pair returns a copy of the current token pair, or nil.
func (m *Manager) Pair() *models.TokenPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair == nil {
		return nil
	}
	p := *m.pair
	return &p
}

// Authenticated reports whether a token pair is currently held.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair != nil
}

// Clear drops the token pair and cancels the renewal timer.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Close tears the manager down. No background renewal survives it.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.pair = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
}

// renewInBackground runs the scheduled proactive renewal. Failures are
// already routed to OnSessionEnd by Refresh, so they are only logged here.
func (m *Manager) renewInBackground() {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}
	if _, err := m.Refresh(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Scheduled token renewal failed")
	}
}
