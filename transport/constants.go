// Package transport holds the process-wide, effectively-immutable
// settings shared by the Rumble server and client: the QUIC/TLS
// configuration and a few timing constants. These are the kind of
// global state spec §9 calls out as safe to initialise once and treat
// as read-only — everything here is a value, never mutated after
// package init.
package transport

import "time"

// ALPN is the single application protocol Rumble negotiates over TLS.
const ALPN = "rumble"

// AuthTimeoutGrace is added to a tunnel's configured auth timeout before
// a handshake is abandoned.
const AuthTimeoutGrace = 5 * time.Second

// CleanupInterval is the period of the tunnel's connection sweeper and
// the server supervisor's restart check.
const CleanupInterval = time.Second

// QUICOverheadBytes is the approximate per-datagram QUIC/UDP/IP overhead.
// No buffer sizing or drop decision in this module reads it; drops are
// always decided by the negotiated MaxDatagramSize, queried per send.
const QUICOverheadBytes = 42

// ShutdownTimeout bounds how long Stop() waits for a background task to
// exit on its own before giving up on the wait.
const ShutdownTimeout = time.Second
