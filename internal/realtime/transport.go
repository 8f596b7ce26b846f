package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// envelope is the wire frame for every event on the channel.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel event names.
const (
	eventAuth         = "auth"
	eventConnect      = "connect"
	eventConnectError = "connect_error"
	eventDisconnect   = "disconnect"
	eventChatResponse = "chat_response"
	eventChatMessage  = "chat_message"
)

// Transport is one open duplex connection. The production implementation
// wraps a websocket; tests substitute scripted transports.
type Transport interface {
	// Read blocks until the next inbound frame or a transport error.
	Read() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Dialer establishes an authenticated Transport. The token is
// connection-time credential material: it travels once in the handshake,
// never on individual messages.
type Dialer func(ctx context.Context, url, token string) (Transport, error)

// WebsocketDialer returns the production Dialer. The handshake is:
// dial, send an auth frame carrying the token, await the server's
// connect acknowledgment.
func WebsocketDialer(handshakeTimeout time.Duration) Dialer {
	return func(ctx context.Context, url, token string) (Transport, error) {
		d := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
		conn, resp, err := d.DialContext(ctx, url, nil)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return nil, &AuthError{Err: err}
			}
			return nil, fmt.Errorf("dial channel: %w", err)
		}

		if err := handshake(conn, token, handshakeTimeout); err != nil {
			conn.Close()
			return nil, err
		}

		conn.SetReadDeadline(time.Time{})
		return &wsTransport{conn: conn}, nil
	}
}

func handshake(conn *websocket.Conn, token string, timeout time.Duration) error {
	authData, _ := json.Marshal(map[string]string{"token": token})
	if err := conn.WriteJSON(envelope{Event: eventAuth, Data: authData}); err != nil {
		return fmt.Errorf("send auth frame: %w", err)
	}

	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		if IsAuthError(err) {
			return &AuthError{Err: err}
		}
		return fmt.Errorf("await connect ack: %w", err)
	}

	var ack envelope
	if err := json.Unmarshal(payload, &ack); err != nil {
		return fmt.Errorf("decode connect ack: %w", err)
	}
	switch ack.Event {
	case eventConnect:
		return nil
	case eventConnectError:
		var detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(ack.Data, &detail)
		err := fmt.Errorf("connect_error: %s %s", detail.Code, detail.Message)
		if detail.Code == "unauthorized" || detail.Code == "token_expired" {
			return &AuthError{Err: err}
		}
		return err
	default:
		return fmt.Errorf("unexpected handshake event %q", ack.Event)
	}
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Read() ([]byte, error) {
	_, payload, err := t.conn.ReadMessage()
	return payload, err
}

func (t *wsTransport) WriteJSON(v any) error {
	return t.conn.WriteJSON(v)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
