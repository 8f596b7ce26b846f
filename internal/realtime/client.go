// Package realtime maintains the single duplex channel to the
// provisioning assistant: connect with token credentials, dispatch
// inbound chat payloads through the action parser, and reconnect with a
// capped, token-refreshing retry policy when the transport reports an
// authentication failure.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/streamweave/streamweave/assistant/internal/actions"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// TokenSource supplies connection credentials. Satisfied by auth.Manager.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Options configures a Client.
type Options struct {
	URL    string
	Tokens TokenSource

	// Dialer defaults to WebsocketDialer. Tests inject scripted dialers.
	Dialer Dialer

	// Policy bounds the reconnect cycle. Defaults to DefaultRetryPolicy.
	Policy RetryPolicy

	// OnMessage receives every inbound chat message, already parsed, in
	// strict arrival order.
	OnMessage func(models.ChatMessage)

	// OnStateChange observes connection state transitions. Optional.
	OnStateChange func(State)

	// OnSessionExpired fires once when the reconnect cap is exceeded or a
	// reconnect-time refresh is rejected. The owner must sign out.
	OnSessionExpired func()

	// WelcomePrefixes identify the server's welcome/reconnected banner,
	// which is suppressed on all but the first successful connection.
	WelcomePrefixes []string
}

// Client is the realtime channel client.
type Client struct {
	opts Options

	mu       sync.Mutex
	state    State
	tr       Transport
	attempts int
	connects int
	expired  bool
	closing  bool
	runCtx   context.Context
	cancel   context.CancelFunc
}

// New creates a disconnected Client.
func New(opts Options) *Client {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer(0)
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultRetryPolicy()
	}
	if len(opts.WelcomePrefixes) == 0 {
		opts.WelcomePrefixes = []string{"Welcome back", "Reconnected"}
	}
	return &Client{opts: opts, state: StateDisconnected}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the channel. It requires a currently valid token; if none
// is obtainable it fails with ErrAuthenticationRequired before touching
// the network. An auth-classified dial failure enters the bounded
// reconnect cycle rather than failing outright.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.closing = false
	c.expired = false
	c.runCtx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()
	c.notifyState(StateConnecting)

	ctx, span := otel.Tracer("realtime").Start(ctx, "channel.connect")
	defer span.End()

	token, err := c.opts.Tokens.ValidToken(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: %v", ErrAuthenticationRequired, err)
	}

	tr, err := c.opts.Dialer(ctx, c.opts.URL, token)
	if err != nil {
		if IsAuthError(err) {
			return c.reconnect(ctx)
		}
		c.setState(StateDisconnected)
		return fmt.Errorf("connect channel: %w", err)
	}

	c.adopt(tr)
	return nil
}

// adopt installs a freshly dialed transport: connected state, zeroed
// attempt counter, new read loop.
func (c *Client) adopt(tr Transport) {
	c.mu.Lock()
	c.tr = tr
	c.state = StateConnected
	c.attempts = 0
	c.connects++
	reconnected := c.connects > 1
	c.mu.Unlock()
	c.notifyState(StateConnected)

	if reconnected {
		log.Info().Msg("🔌 Channel re-established")
	} else {
		log.Info().Msg("🔌 Channel connected")
	}

	go c.readLoop(tr)
}

// readLoop pumps inbound frames until the transport fails or closes.
func (c *Client) readLoop(tr Transport) {
	for {
		payload, err := tr.Read()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if closing {
				return
			}
			if IsAuthError(err) {
				log.Warn().Err(err).Msg("Channel dropped with auth failure, reconnecting")
				_ = c.reconnect(c.runCtx)
				return
			}
			log.Warn().Err(err).Msg("Channel closed")
			c.setState(StateDisconnected)
			return
		}
		c.handlePayload(payload)
	}
}

// reconnect runs the bounded refresh-and-redial cycle. Each attempt
// refreshes the token, tears down the old transport, and dials a new one.
// At most Policy.MaxAttempts attempts per session; the counter resets on
// any successful connection. Exceeding the cap, or a rejected refresh,
// terminates the session.
func (c *Client) reconnect(ctx context.Context) error {
	bo := c.opts.Policy.NewBackOff()

	for {
		c.mu.Lock()
		if c.closing {
			c.mu.Unlock()
			return nil
		}
		if c.attempts >= c.opts.Policy.MaxAttempts {
			c.mu.Unlock()
			c.expireSession()
			return ErrSessionExpired
		}
		c.attempts++
		attempt := c.attempts
		old := c.tr
		c.tr = nil
		c.state = StateReconnecting
		c.mu.Unlock()
		c.notifyState(StateReconnecting)

		if old != nil {
			old.Close()
		}

		log.Info().
			Int("attempt", attempt).
			Int("max", c.opts.Policy.MaxAttempts).
			Msg("Reconnecting with refreshed token")

		token, err := c.opts.Tokens.Refresh(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Refresh during reconnect failed")
			c.expireSession()
			return fmt.Errorf("refresh during reconnect: %w", err)
		}

		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return ctx.Err()
		case <-timeAfter(bo.NextBackOff()):
		}

		tr, err := c.opts.Dialer(ctx, c.opts.URL, token)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Reconnect attempt failed")
			continue
		}

		c.adopt(tr)
		return nil
	}
}

// expireSession terminates the session after the reconnect cycle is
// exhausted. Fires OnSessionExpired exactly once.
func (c *Client) expireSession() {
	c.mu.Lock()
	already := c.expired
	c.expired = true
	c.state = StateDisconnected
	c.mu.Unlock()
	c.notifyState(StateDisconnected)

	if already {
		return
	}
	log.Error().Msg("⛔ Session expired: reconnect attempts exhausted")
	if c.opts.OnSessionExpired != nil {
		c.opts.OnSessionExpired()
	}
}

// handlePayload decodes one inbound frame and dispatches it.
func (c *Client) handlePayload(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Warn().Err(err).Msg("Undecodable channel frame dropped")
		return
	}

	switch env.Event {
	case eventChatResponse:
		c.handleChatResponse(env.Data)
	case eventDisconnect:
		log.Info().Msg("Server requested disconnect")
		c.setState(StateDisconnected)
	default:
		log.Debug().Str("event", env.Event).Msg("Unhandled channel event")
	}
}

func (c *Client) handleChatResponse(data json.RawMessage) {
	var resp struct {
		Message string                    `json:"message"`
		Actions []models.ActionDescriptor `json:"actions,omitempty"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Warn().Err(err).Msg("Undecodable chat_response dropped")
		return
	}

	clean, acts := actions.Parse(resp.Message)

	// Server-declared descriptors supplement embedded blocks; embedded
	// blocks win on a type collision.
	for _, d := range resp.Actions {
		step := actions.Classify(d.Action)
		if hasStep(acts, step) {
			continue
		}
		acts = append(acts, models.ParsedAction{Type: step, Data: d.Data})
	}

	role := models.RoleAssistant
	if c.isBanner(clean) {
		c.mu.Lock()
		repeat := c.connects > 1
		c.mu.Unlock()
		if repeat {
			log.Debug().Msg("Suppressing repeated welcome banner")
			return
		}
		role = models.RoleSystem
	}

	msg := models.NewChatMessage(role, clean, acts)
	if c.opts.OnMessage != nil {
		c.opts.OnMessage(msg)
	}
}

func (c *Client) isBanner(content string) bool {
	for _, prefix := range c.opts.WelcomePrefixes {
		if strings.HasPrefix(content, prefix) {
			return true
		}
	}
	return false
}

// Send delivers one outbound chat message. Rejected with ErrNotConnected
// outside the connected state; the session identity travels with the
// transport, never as a per-message field.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	if c.state != StateConnected || c.tr == nil {
		state := c.state
		c.mu.Unlock()
		log.Warn().Str("state", state.String()).Msg("Dropping outbound message, channel not connected")
		return ErrNotConnected
	}
	tr := c.tr
	c.mu.Unlock()

	data, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	if err := tr.WriteJSON(envelope{Event: eventChatMessage, Data: data}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Close tears the channel down: socket closed, counters zeroed. Safe to
// call from any state and more than once.
func (c *Client) Close() {
	c.mu.Lock()
	c.closing = true
	tr := c.tr
	c.tr = nil
	c.attempts = 0
	cancel := c.cancel
	c.cancel = nil
	wasDisconnected := c.state == StateDisconnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		tr.Close()
	}
	if !wasDisconnected {
		c.notifyState(StateDisconnected)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.notifyState(s)
}

func (c *Client) notifyState(s State) {
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(s)
	}
}

func hasStep(acts []models.ParsedAction, step models.StepType) bool {
	for _, a := range acts {
		if a.Type == step {
			return true
		}
	}
	return false
}
