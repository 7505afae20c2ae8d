package auth

import "errors"

// ErrAuthTimeout is returned when a peer fails to complete the handshake
// before the configured timeout elapses.
var ErrAuthTimeout = errors.New("auth: timed out waiting for handshake message")

// ErrAuthRejected is returned by ServerHandshake when it rejects the
// submitted credentials, and by ClientHandshake when the server does.
var ErrAuthRejected = errors.New("auth: credentials rejected by server")

// ErrOversizedMessage is returned when a handshake frame exceeds the
// fixed buffer size.
var ErrOversizedMessage = errors.New("auth: handshake message exceeds maximum size")

// ErrMalformedMessage is returned when a handshake frame cannot be
// decoded as the expected message type.
var ErrMalformedMessage = errors.New("auth: malformed handshake message")
