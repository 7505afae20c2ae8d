package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cppla/rumble/auth"
	"github.com/cppla/rumble/config"
	"github.com/cppla/rumble/iface"
	"github.com/cppla/rumble/pool"
	"github.com/cppla/rumble/transport"
	"github.com/cppla/rumble/utils"
	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// tunReadBufferSize bounds the plumbing channel between the TUN device's
// own blocking reader goroutine and the restartable TUN->peers pump
// task. It is not the spec's unbounded inbound aggregation queue (that's
// byteQueue, peers->TUN direction); it only decouples a pump task that
// must be cancellable via context from a device Read call that Go has no
// way to cancel directly.
const tunReadBufferSize = 256

// listener is the subset of *quic.Listener the tunnel needs, broken out
// so tests can substitute a fake.
type listener interface {
	Accept(ctx context.Context) (quic.Connection, error)
	Close() error
}

// Tunnel is the per-tunnel server runtime: one TUN device, one QUIC
// listener, one address pool, a registry of active connections, and the
// four background tasks that move packets between them.
type Tunnel struct {
	name    string
	mtu     int
	timeout time.Duration

	device   *iface.Device
	listener listener
	addrPool *pool.Pool
	users    *auth.UserDatabase
	registry *registry
	inbound  *byteQueue
	metrics  *Metrics
	logger   *zap.Logger

	tunFrames chan []byte // fed by the device's own reader goroutine

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []*utils.Task
}

// New creates the tunnel's TUN device (configured with the pool's
// gateway address and MTU) and QUIC listener, and initialises the
// address pool and connection registry. It does not start any
// background task; call Start for that.
func New(name string, tunnelCfg config.TunnelConfig, connCfg config.ConnectionConfig, logger *zap.Logger) (*Tunnel, error) {
	addrPool, err := pool.New(tunnelCfg.Network)
	if err != nil {
		return nil, fmt.Errorf("tunnel %q: building address pool: %w", name, err)
	}

	users := make(map[string]string, len(tunnelCfg.Users))
	for _, u := range tunnelCfg.Users {
		users[u.Username] = u.Password
	}

	device, err := iface.Open(int(connCfg.MTU))
	if err != nil {
		return nil, fmt.Errorf("tunnel %q: opening tun device: %w", name, err)
	}
	if err := device.ConfigureAddress(addrPool.Gateway().IPNet()); err != nil {
		device.Close()
		return nil, fmt.Errorf("tunnel %q: configuring tun device: %w", name, err)
	}

	tlsConfig, err := transport.ServerTLSConfig(connCfg.TLS.CertPath, connCfg.TLS.KeyPath)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("tunnel %q: %w", name, err)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", tunnelCfg.BindAddress)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("tunnel %q: resolving bind_address %q: %w", name, tunnelCfg.BindAddress, err)
	}

	udpConn, err := utils.BindSocket(logger, udpAddr, connCfg.SendBufferSize, connCfg.RecvBufferSize)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("tunnel %q: %w", name, err)
	}

	quicListener, err := quic.Listen(udpConn, tlsConfig, transport.QUICConfig())
	if err != nil {
		device.Close()
		udpConn.Close()
		return nil, fmt.Errorf("tunnel %q: starting quic listener: %w", name, err)
	}

	t := &Tunnel{
		name:      name,
		mtu:       int(connCfg.MTU),
		timeout:   time.Duration(connCfg.Timeout) * time.Second,
		device:    device,
		listener:  quicListener,
		addrPool:  addrPool,
		users:     auth.NewUserDatabase(users),
		registry:  newRegistry(),
		inbound:   newByteQueue(),
		metrics:   &Metrics{},
		logger:    logger.With(zap.String("tunnel", name)),
		tunFrames: make(chan []byte, tunReadBufferSize),
	}

	go t.readDevice()

	return t, nil
}

// Name returns the tunnel's configured name.
func (t *Tunnel) Name() string { return t.name }

// Metrics returns a live snapshot of the tunnel's counters.
func (t *Tunnel) Metrics() Metrics { return t.metrics.Snapshot() }

// readDevice is the long-lived, non-cancellable goroutine that performs
// the actual blocking reads off the TUN device. Go cannot forcibly
// cancel a goroutine parked in a device Read syscall the way the
// original task.abort() can, so this goroutine lives for the tunnel's
// whole lifetime (tied to the device, not to Start/Stop) and the
// restartable pump task below only ever waits on the channel it feeds,
// which select/ctx.Done() can abandon promptly.
func (t *Tunnel) readDevice() {
	buf := make([]byte, t.mtu+64)
	for {
		n, err := t.device.ReadPacket(buf)
		if err != nil {
			return
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		t.tunFrames <- frame
	}
}

// Start spawns the accept loop, the two pumps, and the cleanup sweeper.
func (t *Tunnel) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx != nil && t.ctx.Err() == nil {
		return ErrAlreadyRunning
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.tasks = []*utils.Task{
		utils.Go(func() error { return t.acceptLoop(t.ctx) }),
		utils.Go(func() error { return t.tunToPeersPump(t.ctx) }),
		utils.Go(func() error { return t.peersToTunPump(t.ctx) }),
		utils.Go(func() error { return t.cleanupSweeper(t.ctx) }),
	}

	return nil
}

// Stop cancels all four tasks and waits up to the shutdown timeout for
// each to return.
func (t *Tunnel) Stop() error {
	t.mu.Lock()
	cancel := t.cancel
	tasks := t.tasks
	t.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	for _, task := range tasks {
		if err := utils.JoinOrAbort(task, transport.ShutdownTimeout); err != nil {
			t.logger.Error("tunnel task exited with error", zap.Error(err))
		}
	}

	return nil
}

// IsOK reports whether all four background tasks are alive.
func (t *Tunnel) IsOK() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.tasks) == 0 {
		return false
	}
	for _, task := range t.tasks {
		if task.Finished() {
			return false
		}
	}
	return true
}

// acceptLoop accepts QUIC connections, allocates each one a lease, and
// starts a Connection for it.
func (t *Tunnel) acceptLoop(ctx context.Context) error {
	for {
		conn, err := t.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("tunnel %q: accept: %w", t.name, err)
		}

		lease, err := t.addrPool.Allocate()
		if err != nil {
			t.logger.Warn("rejecting connection: address pool exhausted",
				zap.String("remoteAddr", conn.RemoteAddr().String()))
			conn.CloseWithError(0, "pool exhausted")
			continue
		}

		peer := WrapConnection(conn)
		rc := NewConnection(peer, t.users, lease, t.timeout, t.inbound, t.metrics, t.logger)

		if err := rc.Start(); err != nil {
			t.logger.Error("failed to start connection", zap.Error(err))
			t.addrPool.Release(lease.IP)
			conn.CloseWithError(0, "internal error")
			continue
		}

		t.registry.insert(lease.IP, rc)
		t.logger.Info("accepted connection",
			zap.String("remoteAddr", conn.RemoteAddr().String()),
			zap.String("address", lease.String()))
	}
}

// tunToPeersPump reads frames the device goroutine has already pulled off
// the kernel, looks up the destination in the registry, and forwards
// them as QUIC datagrams.
func (t *Tunnel) tunToPeersPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-t.tunFrames:
			t.forwardFrame(frame)
		}
	}
}

func (t *Tunnel) forwardFrame(frame []byte) {
	dest, ok := parseDestination(frame)
	if !ok {
		return
	}

	conn, ok := t.registry.lookup(dest)
	if !ok {
		return
	}

	if len(frame) > conn.MaxDatagramSize() {
		t.metrics.incDroppedOversize()
		t.logger.Warn("dropping oversize packet",
			zap.Int("size", len(frame)),
			zap.Int("maxDatagramSize", conn.MaxDatagramSize()))
		return
	}

	if err := conn.SendDatagram(frame); err != nil {
		t.logger.Debug("failed to forward packet to peer", zap.Error(err))
	}
}

// peersToTunPump is the single consumer of the inbound aggregation
// queue: it serializes every connection's incoming datagrams into one
// writer onto the TUN device.
func (t *Tunnel) peersToTunPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-t.inbound.Recv():
			if !ok {
				return nil
			}
			if err := t.device.WritePacket(frame); err != nil {
				return fmt.Errorf("tunnel %q: writing to tun device: %w", t.name, err)
			}
		}
	}
}

// cleanupSweeper walks the registry once per CleanupInterval, removing
// and tearing down any connection that is no longer ok or whose auth
// state has failed, and releasing its lease.
func (t *Tunnel) cleanupSweeper(ctx context.Context) error {
	ticker := time.NewTicker(transport.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *Tunnel) sweep() {
	for key, conn := range t.registry.snapshot() {
		state, _ := conn.Status().Get()
		if conn.IsOK() && state != auth.StateFailed {
			continue
		}

		ip := conn.Lease().IP
		_ = key
		t.registry.remove(ip)
		t.addrPool.Release(ip)
		if err := conn.Stop(); err != nil {
			t.logger.Error("error stopping swept connection", zap.Error(err))
		}
		t.logger.Info("swept connection", zap.String("address", conn.Lease().String()))
	}
}
