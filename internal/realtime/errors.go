package realtime

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

var (
	// ErrAuthenticationRequired means no valid token could be obtained, so
	// no network connection was attempted.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNotConnected means Send was called outside the connected state.
	ErrNotConnected = errors.New("channel not connected")

	// ErrSessionExpired means the bounded reconnect cycle was exhausted
	// and the session has been forcibly terminated.
	ErrSessionExpired = errors.New("session expired")

	// ErrAlreadyConnected means Connect was called while a channel is
	// already open or being opened.
	ErrAlreadyConnected = errors.New("channel already connected")
)

// AuthError marks a transport failure that signals an authentication
// problem, as opposed to a generic network failure. Auth failures drive
// the refresh-and-reconnect cycle; network failures do not.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("channel authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Server-assigned close codes for auth failures, alongside the standard
// policy-violation code.
const (
	closeCodeUnauthorized = 4001
	closeCodeTokenExpired = 4003
)

// IsAuthError classifies a connect/read error as authentication-related.
func IsAuthError(err error) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return true
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.ClosePolicyViolation, closeCodeUnauthorized, closeCodeTokenExpired:
			return true
		}
	}
	return false
}
