package client

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when called on a Client whose
	// pumps are already running.
	ErrAlreadyRunning = errors.New("client: already running")

	// ErrNotConnected marks an operation attempted before the handshake
	// has completed.
	ErrNotConnected = errors.New("client: not connected")
)
