package server

import (
	"fmt"
	"time"

	"github.com/cppla/rumble/config"
	"github.com/cppla/rumble/transport"
	"go.uber.org/zap"
)

// tunnelRunner is the subset of *Tunnel the supervisor drives, broken out
// so tests can substitute a fake instead of a real TUN device and QUIC
// listener (the same seam PeerConnection/serverConnection use).
type tunnelRunner interface {
	Name() string
	Start() error
	Stop() error
	IsOK() bool
}

// Supervisor owns every tunnel a server config defines and keeps them
// running: once a second it restarts any tunnel whose IsOK has gone
// false, mirroring the original's per-tunnel restart loop rather than
// letting one tunnel's failure bring the process down.
type Supervisor struct {
	tunnels []tunnelRunner
	logger  *zap.Logger
	metrics *Metrics

	stop chan struct{}
	done chan struct{}
}

// NewSupervisor constructs every tunnel named in cfg up front. A failure
// building any one of them is fatal: the caller should treat it as a
// startup error, not something to retry at runtime.
func NewSupervisor(cfg *config.ServerConfig, logger *zap.Logger) (*Supervisor, error) {
	tunnels := make([]*Tunnel, 0, len(cfg.Tunnels))
	for name, tunnelCfg := range cfg.Tunnels {
		t, err := New(name, tunnelCfg, cfg.Connection, logger)
		if err != nil {
			for _, built := range tunnels {
				built.Stop()
			}
			return nil, fmt.Errorf("constructing tunnel %q: %w", name, err)
		}
		tunnels = append(tunnels, t)
	}

	runners := make([]tunnelRunner, len(tunnels))
	for i, t := range tunnels {
		runners[i] = t
	}

	return newSupervisor(runners, logger), nil
}

func newSupervisor(runners []tunnelRunner, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		tunnels: runners,
		logger:  logger,
		metrics: &Metrics{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run starts every tunnel and blocks, restarting any tunnel that goes
// unhealthy, until Stop is called.
func (s *Supervisor) Run() error {
	defer close(s.done)

	for _, t := range s.tunnels {
		if err := t.Start(); err != nil {
			return fmt.Errorf("starting tunnel %q: %w", t.Name(), err)
		}
	}

	ticker := time.NewTicker(transport.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			for _, t := range s.tunnels {
				t.Stop()
			}
			return nil
		case <-ticker.C:
			for _, t := range s.tunnels {
				if t.IsOK() {
					continue
				}
				s.logger.Warn("restarting unhealthy tunnel", zap.String("tunnel", t.Name()))
				t.Stop()
				if err := t.Start(); err != nil {
					s.logger.Error("failed to restart tunnel", zap.String("tunnel", t.Name()), zap.Error(err))
					continue
				}
				s.metrics.incTunnelRestarts()
			}
		}
	}
}

// Stop signals Run to tear down every tunnel and waits for it to return.
func (s *Supervisor) Stop() {
	close(s.stop)
	<-s.done
}

// Metrics returns the supervisor's own restart counter.
func (s *Supervisor) Metrics() Metrics { return s.metrics.Snapshot() }
