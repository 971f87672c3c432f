package netio

import "errors"

// Connection-level failures (baseline §7). Apart from ErrUnknownPacket,
// which is only logged, and ErrConnectionClosed, which Send reports
// once shutdown has begun, each of these ends the connection. For
// ErrProtocolViolation handleFatal attempts a Disconnect first;
// ErrCapacity and ErrAuthFailed are returned after their caller has
// already queued one.
var (
	// ErrProtocolViolation is well-formed bytes in the wrong state or
	// with wrong id semantics: a malformed packet body, a verify-token
	// mismatch, or a state transition the machine does not allow.
	ErrProtocolViolation = errors.New("netio: protocol violation")
	// ErrUnknownPacket is logged, never returned: an unrecognized id in
	// a known state is non-fatal per baseline §4.3.
	ErrUnknownPacket = errors.New("netio: unknown packet id")
	// ErrKeepAliveTimeout is a missed or mismatched keep-alive echo.
	// No Disconnect is attempted before closing.
	ErrKeepAliveTimeout = errors.New("netio: keep-alive timeout")
	// ErrAuthFailed is a failed online-mode session verification.
	ErrAuthFailed = errors.New("netio: authentication failed")
	// ErrCapacity is a login attempt while the server is at its
	// connection cap.
	ErrCapacity = errors.New("netio: connection capacity reached")
	// ErrConnectionClosed is returned by Send once the connection has
	// begun shutting down.
	ErrConnectionClosed = errors.New("netio: connection closed")
)
