// Package client implements the Rumble peer: it dials a tunnel's QUIC
// listener, runs the client half of the authentication handshake, and
// then pumps packets between a local TUN device and the server, mirroring
// the server tunnel's TUN pumps and a Connection's datagram ingest.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cppla/rumble/auth"
	"github.com/cppla/rumble/config"
	"github.com/cppla/rumble/iface"
	"github.com/cppla/rumble/transport"
	"github.com/cppla/rumble/utils"
	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

const tunReadBufferSize = 64

// Client is one Rumble peer connection: a TUN device and a single QUIC
// connection to the server, with two pumps moving frames between them.
type Client struct {
	cfg    *config.ClientConfig
	logger *zap.Logger

	conn    serverConnection
	device  *iface.Device
	address *net.IPNet
	metrics *Metrics

	tunFrames chan []byte

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []*utils.Task
}

// New dials the server, completes the authentication handshake, and
// configures a local TUN device with the address the server assigned.
// It does not start the pumps; call Start for that.
func New(cfg *config.ClientConfig, logger *zap.Logger) (*Client, error) {
	host, _, err := net.SplitHostPort(cfg.ConnectionString)
	if err != nil {
		host = cfg.ConnectionString
	}

	tlsConfig, err := transport.ClientTLSConfig(host, cfg.Connection.TLS.CAPath)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Connection.Timeout)*time.Second+transport.AuthTimeoutGrace)
	defer cancel()

	rawConn, err := quic.DialAddr(dialCtx, cfg.ConnectionString, tlsConfig, transport.QUICConfig())
	if err != nil {
		return nil, fmt.Errorf("client: dialing %s: %w", cfg.ConnectionString, err)
	}
	conn := wrapConnection(rawConn)

	stream, err := conn.OpenStreamSync(dialCtx)
	if err != nil {
		conn.CloseWithError(0, "auth stream failed")
		return nil, fmt.Errorf("client: opening auth stream: %w", err)
	}

	address, err := auth.ClientHandshake(stream, time.Duration(cfg.Connection.Timeout)*time.Second, cfg.Authentication.Username, cfg.Authentication.Password)
	if err != nil {
		conn.CloseWithError(0, "authentication failed")
		return nil, fmt.Errorf("client: %w", err)
	}

	device, err := iface.Open(int(cfg.Connection.MTU))
	if err != nil {
		conn.CloseWithError(0, "local setup failed")
		return nil, fmt.Errorf("client: opening tun device: %w", err)
	}
	if err := device.ConfigureAddress(address); err != nil {
		device.Close()
		conn.CloseWithError(0, "local setup failed")
		return nil, fmt.Errorf("client: configuring tun device: %w", err)
	}

	logger.Info("authenticated with server",
		zap.String("server", cfg.ConnectionString),
		zap.String("address", address.String()),
		zap.String("device", device.Name()))

	c := &Client{
		cfg:       cfg,
		logger:    logger,
		conn:      conn,
		device:    device,
		address:   address,
		metrics:   &Metrics{},
		tunFrames: make(chan []byte, tunReadBufferSize),
	}

	go c.readDevice()

	return c, nil
}

// Address returns the address the server assigned this client.
func (c *Client) Address() *net.IPNet { return c.address }

// Metrics returns a live snapshot of the client's counters.
func (c *Client) Metrics() Metrics { return c.metrics.Snapshot() }

// readDevice mirrors server.Tunnel.readDevice: a long-lived goroutine
// doing the actual blocking TUN reads, decoupled from the restartable
// pump task via a channel so Stop can abandon the pump promptly even
// though Go cannot force-cancel a blocked device read.
func (c *Client) readDevice() {
	buf := make([]byte, int(c.cfg.Connection.MTU)+64)
	for {
		n, err := c.device.ReadPacket(buf)
		if err != nil {
			return
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		c.tunFrames <- frame
	}
}

// Start spawns the two pumps: TUN to server, and server to TUN.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx != nil && c.ctx.Err() == nil {
		return ErrAlreadyRunning
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.tasks = []*utils.Task{
		utils.Go(func() error { return c.tunToServerPump(c.ctx) }),
		utils.Go(func() error { return c.serverToTunPump(c.ctx) }),
	}

	return nil
}

// Stop cancels both pumps and waits up to the shutdown timeout for each.
func (c *Client) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	tasks := c.tasks
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	for _, task := range tasks {
		if err := utils.JoinOrAbort(task, transport.ShutdownTimeout); err != nil {
			c.logger.Error("client task exited with error", zap.Error(err))
		}
	}

	c.conn.CloseWithError(0, "client shutting down")
	return c.device.Close()
}

// IsOK reports whether both pumps are still alive. Either one exiting
// (server disconnect, device failure) marks the client unhealthy; unlike
// the server's per-tunnel supervision, reconnecting is left to the
// caller, which mirrors the spec's "client holds a single connection"
// model: there is no peer registry to restart one of many from.
func (c *Client) IsOK() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tasks) == 0 {
		return false
	}
	for _, task := range c.tasks {
		if task.Finished() {
			return false
		}
	}
	return true
}

func (c *Client) tunToServerPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-c.tunFrames:
			if len(frame) > c.conn.MaxDatagramSize() {
				c.metrics.incDroppedOversize()
				c.logger.Warn("dropping oversize packet",
					zap.Int("size", len(frame)),
					zap.Int("maxDatagramSize", c.conn.MaxDatagramSize()))
				continue
			}
			if err := c.conn.SendDatagram(frame); err != nil {
				return fmt.Errorf("client: sending to server: %w", err)
			}
			c.metrics.incDatagramsOut()
		}
	}
}

func (c *Client) serverToTunPump(ctx context.Context) error {
	for {
		data, err := c.conn.ReceiveDatagram(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("client: receiving from server: %w", err)
		}
		c.metrics.incDatagramsIn()
		if err := c.device.WritePacket(data); err != nil {
			return fmt.Errorf("client: writing to tun device: %w", err)
		}
	}
}
