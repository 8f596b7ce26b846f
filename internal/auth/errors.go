package auth

import "errors"

// Common errors for the token lifecycle.
var (
	// ErrUnauthenticated means no token pair has ever been stored, or it
	// was explicitly cleared. Returned without any network call.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrRefreshRejected means the server refused the refresh token.
	// Fatal to the session: tokens are cleared before it is returned.
	ErrRefreshRejected = errors.New("refresh token rejected")
)
