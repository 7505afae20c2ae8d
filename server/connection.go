package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cppla/rumble/auth"
	"github.com/cppla/rumble/pool"
	"github.com/cppla/rumble/transport"
	"github.com/cppla/rumble/utils"
	"go.uber.org/zap"
)

// Connection wraps one authenticated QUIC connection: it owns the
// background task that reads datagrams from the peer and forwards them
// to the tunnel's shared inbound queue, and it tracks that connection's
// authentication state.
type Connection struct {
	peer        PeerConnection
	users       *auth.UserDatabase
	lease       pool.Lease
	authTimeout time.Duration
	inbound     *byteQueue
	metrics     *Metrics
	logger      *zap.Logger

	status *auth.Status

	mu   sync.Mutex
	task *utils.Task
}

// NewConnection builds a Connection around an already-accepted QUIC
// connection and an address lease the tunnel's accept loop has already
// allocated for it.
func NewConnection(peer PeerConnection, users *auth.UserDatabase, lease pool.Lease, authTimeout time.Duration, inbound *byteQueue, metrics *Metrics, logger *zap.Logger) *Connection {
	return &Connection{
		peer:        peer,
		users:       users,
		lease:       lease,
		authTimeout: authTimeout,
		inbound:     inbound,
		metrics:     metrics,
		logger:      logger,
		status:      auth.NewStatus(),
	}
}

// Start spawns the ingest task. Returns ErrAlreadyRunning if a task is
// already in flight.
func (c *Connection) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.task != nil && !c.task.Finished() {
		return ErrAlreadyRunning
	}

	c.task = utils.Go(c.run)
	return nil
}

// Stop joins the ingest task, aborting the wait (not the task itself,
// which Go cannot force-kill) after shutdownTimeout.
func (c *Connection) Stop() error {
	c.mu.Lock()
	task := c.task
	c.mu.Unlock()

	if task == nil {
		return nil
	}
	return utils.JoinOrAbort(task, transport.ShutdownTimeout)
}

// IsOK reports whether the ingest task exists and has not finished.
func (c *Connection) IsOK() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil && !c.task.Finished()
}

// Status exposes the connection's authentication state for the cleanup
// sweeper and tests.
func (c *Connection) Status() *auth.Status {
	return c.status
}

// Lease returns the address leased to this connection.
func (c *Connection) Lease() pool.Lease {
	return c.lease
}

// MaxDatagramSize delegates to the underlying QUIC connection.
func (c *Connection) MaxDatagramSize() int {
	return c.peer.MaxDatagramSize()
}

// RemoteAddr delegates to the underlying QUIC connection.
func (c *Connection) RemoteAddr() net.Addr {
	return c.peer.RemoteAddr()
}

// SendDatagram sends data to the peer. Fails with ErrNotAuthenticated
// unless the connection has completed authentication.
func (c *Connection) SendDatagram(data []byte) error {
	if !c.status.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := c.peer.SendDatagram(data); err != nil {
		return fmt.Errorf("sending datagram to %s: %w", c.peer.RemoteAddr(), err)
	}
	c.metrics.incDatagramsOut()
	return nil
}

// run is the ingest task body: authenticate, then loop reading datagrams
// from the peer and forwarding them to the tunnel's inbound queue. It
// never touches the TUN device directly.
func (c *Connection) run() error {
	if err := c.authenticate(); err != nil {
		c.status.SetFailed(err)
		return err
	}

	for {
		if !c.status.IsAuthenticated() {
			return fmt.Errorf("connection %s: %w", c.peer.RemoteAddr(), ErrNotAuthenticated)
		}

		data, err := c.peer.ReceiveDatagram(context.Background())
		if err != nil {
			return fmt.Errorf("connection %s: %w: %v", c.peer.RemoteAddr(), ErrPeerDisconnected, err)
		}

		c.metrics.incDatagramsIn()

		if err := c.inbound.Send(data); err != nil {
			return fmt.Errorf("connection %s: %w", c.peer.RemoteAddr(), err)
		}
	}
}

func (c *Connection) authenticate() error {
	c.status.SetAuthenticating()

	deadline := time.Now().Add(c.authTimeout + transport.AuthTimeoutGrace)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	stream, err := c.peer.AcceptStream(ctx)
	if err != nil {
		return fmt.Errorf("waiting for auth stream: %w", auth.ErrAuthTimeout)
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = 0
	}

	userID, err := auth.ServerHandshake(stream, remaining, c.users, c.lease.IPNet())
	if err != nil {
		if err == auth.ErrAuthRejected {
			c.metrics.incAuthRejections()
		}
		return err
	}

	c.status.SetAuthenticated(userID)
	c.logger.Info("connection authenticated",
		zap.String("remoteAddr", c.peer.RemoteAddr().String()),
		zap.String("userID", userID),
		zap.String("address", c.lease.String()))

	return nil
}
