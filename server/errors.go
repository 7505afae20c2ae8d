package server

import "errors"

var (
	// ErrAlreadyRunning is returned by Connection.Start and Tunnel.Start
	// when called on an instance already running.
	ErrAlreadyRunning = errors.New("server: already running")

	// ErrNotAuthenticated is returned by Connection.SendDatagram when the
	// connection has not completed authentication.
	ErrNotAuthenticated = errors.New("server: connection is not authenticated")

	// ErrPeerDisconnected marks an ingest task ending because the peer
	// went away.
	ErrPeerDisconnected = errors.New("server: peer disconnected")

	// ErrQueueClosed marks an ingest task ending because the tunnel's
	// inbound aggregation queue is gone (tunnel shutting down).
	ErrQueueClosed = errors.New("server: inbound queue closed")
)
