// Package session composes the provisioning assistant client into one
// explicitly constructed session object: token lifecycle, realtime
// channel, and workflow state machine, with a Start/Stop lifecycle.
//
// The renewal timer, socket, and reconnect counter are all owned here
// and torn down on every exit path (explicit sign-out, forced logout
// after the reconnect cap, process teardown), so no background job
// outlives its session. Exactly one Session is active per client process.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/streamweave/streamweave/assistant/internal/anomaly"
	"github.com/streamweave/streamweave/assistant/internal/auth"
	"github.com/streamweave/streamweave/assistant/internal/config"
	"github.com/streamweave/streamweave/assistant/internal/realtime"
	"github.com/streamweave/streamweave/assistant/internal/workflow"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// Options tunes a Session beyond what config supplies.
type Options struct {
	// OnMessage observes every appended chat message. Optional.
	OnMessage func(models.ChatMessage)

	// OnNotice receives user-visible notices ("session expired"). Optional.
	OnNotice func(string)

	// OnStateChange observes channel state transitions. Optional.
	OnStateChange func(realtime.State)

	// Dialer overrides the websocket dialer. Tests only.
	Dialer realtime.Dialer
}

// Session is the client's authenticated identity and conversation state
// for the lifetime of one sign-in.
type Session struct {
	ID string

	cfg  *config.Config
	opts Options

	api     *auth.Client
	tokens  *auth.Manager
	channel *realtime.Client
	flow    *workflow.Machine

	mu       sync.Mutex
	user     *models.AuthUser
	legacy   string
	messages []models.ChatMessage
}

// New wires a Session from configuration. Nothing connects until Start.
func New(cfg *config.Config, opts Options) (*Session, error) {
	thresholds, err := anomaly.LoadThresholds(cfg.ThresholdsPath)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}

	s := &Session{
		ID:   uuid.New().String(),
		cfg:  cfg,
		opts: opts,
		api:  auth.NewClient(cfg.API.BaseURL, cfg.API.Timeout),
		flow: workflow.NewMachine(thresholds),
	}

	s.tokens = auth.NewManager(s.api, auth.ManagerOptions{
		Lifetime:     cfg.Auth.TokenLifetime,
		Buffer:       cfg.Auth.RenewalBuffer,
		OnSessionEnd: s.handleSessionEnd,
	})

	s.channel = realtime.New(realtime.Options{
		URL:    cfg.Realtime.URL,
		Tokens: s.tokens,
		Dialer: orDefaultDialer(opts.Dialer, cfg),
		Policy: realtime.RetryPolicy{
			MaxAttempts: cfg.Realtime.MaxReconnects,
			NewBackOff:  realtime.DefaultRetryPolicy().NewBackOff,
		},
		OnMessage:        s.handleMessage,
		OnStateChange:    opts.OnStateChange,
		OnSessionExpired: s.handleExpired,
	})

	return s, nil
}

func orDefaultDialer(d realtime.Dialer, cfg *config.Config) realtime.Dialer {
	if d != nil {
		return d
	}
	return realtime.WebsocketDialer(cfg.Realtime.HandshakeTimeout)
}

// SignIn stores the token pair and fetches the user profile.
func (s *Session) SignIn(ctx context.Context, accessToken, refreshToken string) error {
	s.tokens.Store(accessToken, refreshToken)

	user, err := s.api.Me(ctx, accessToken, false)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	log.Info().Str("email", user.Email).Msg("🔓 Signed in")
	return nil
}

// SignInLegacy authenticates with a legacy bearer session string. Legacy
// sessions have no refresh token: when they expire the user signs in
// again.
func (s *Session) SignInLegacy(ctx context.Context, legacyToken string) error {
	user, err := s.api.Me(ctx, legacyToken, true)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.legacy = legacyToken
	s.mu.Unlock()
	s.tokens.Store(legacyToken, "")

	log.Info().Str("email", user.Email).Msg("🔓 Signed in (legacy session)")
	return nil
}

// Start opens the realtime channel.
func (s *Session) Start(ctx context.Context) error {
	return s.channel.Connect(ctx)
}

// Send appends the user's message to the transcript and delivers it over
// the channel.
func (s *Session) Send(text string) error {
	if err := s.channel.Send(text); err != nil {
		return err
	}
	msg := models.NewChatMessage(models.RoleUser, text, nil)
	s.append(msg)
	return nil
}

// handleMessage is the channel's inbound callback: append to the
// transcript in arrival order and feed actions to the workflow machine.
func (s *Session) handleMessage(msg models.ChatMessage) {
	for _, action := range msg.Actions {
		s.flow.Apply(action)
	}
	s.append(msg)
}

func (s *Session) append(msg models.ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	if s.opts.OnMessage != nil {
		s.opts.OnMessage(msg)
	}
}

// handleExpired runs when the channel exhausts its reconnect budget.
func (s *Session) handleExpired() {
	s.notify("Your session has expired. Please sign in again.")
	s.Stop()
}

// handleSessionEnd runs when a refresh is rejected or impossible.
func (s *Session) handleSessionEnd(err error) {
	log.Warn().Err(err).Msg("Session terminated by auth failure")
	s.notify("Your session has ended. Please sign in again.")
}

func (s *Session) notify(text string) {
	if s.opts.OnNotice != nil {
		s.opts.OnNotice(text)
	}
}

// SignOut invalidates the session server-side (best effort) and tears
// everything down.
func (s *Session) SignOut(ctx context.Context) {
	if pair := s.tokens.Pair(); pair != nil {
		if err := s.api.Logout(ctx, pair.AccessToken); err != nil {
			log.Warn().Err(err).Msg("Server-side logout failed, clearing locally")
		}
	}
	s.Stop()
	log.Info().Msg("🔒 Signed out")
}

// Stop tears down the channel, renewal timer, and workflow context.
// Idempotent; every exit path funnels here.
func (s *Session) Stop() {
	s.channel.Close()
	s.tokens.Close()
	s.flow.Reset()
}

// User returns the signed-in profile, or nil.
func (s *Session) User() *models.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Messages returns a snapshot of the transcript in append order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Workflow exposes the provisioning state machine for rendering gates.
func (s *Session) Workflow() *workflow.Machine {
	return s.flow
}

// Channel exposes the realtime client, mainly for state inspection.
func (s *Session) Channel() *realtime.Client {
	return s.channel
}

// Tokens exposes the token lifecycle manager.
func (s *Session) Tokens() *auth.Manager {
	return s.tokens
}
