package server

import (
	"sync/atomic"
	"testing"
	"time"
)

// fakeTunnel is a tunnelRunner stub letting Supervisor's restart logic be
// exercised without a real TUN device or QUIC listener.
type fakeTunnel struct {
	name       string
	ok         int32 // atomic bool
	startCount int32
	stopCount  int32
}

func newFakeTunnel(name string, startOK bool) *fakeTunnel {
	f := &fakeTunnel{name: name}
	if startOK {
		atomic.StoreInt32(&f.ok, 1)
	}
	return f
}

func (f *fakeTunnel) Name() string { return f.name }
func (f *fakeTunnel) Start() error {
	atomic.AddInt32(&f.startCount, 1)
	atomic.StoreInt32(&f.ok, 1)
	return nil
}
func (f *fakeTunnel) Stop() error {
	atomic.AddInt32(&f.stopCount, 1)
	return nil
}
func (f *fakeTunnel) IsOK() bool { return atomic.LoadInt32(&f.ok) == 1 }

func (f *fakeTunnel) fail() { atomic.StoreInt32(&f.ok, 0) }

func TestSupervisorRestartsUnhealthyTunnel(t *testing.T) {
	healthy := newFakeTunnel("healthy", true)
	unhealthy := newFakeTunnel("unhealthy", true)

	s := newSupervisor([]tunnelRunner{healthy, unhealthy}, testLogger())

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	waitUntil(t, time.Second, func() bool {
		return atomic.LoadInt32(&healthy.startCount) == 1 && atomic.LoadInt32(&unhealthy.startCount) == 1
	})

	unhealthy.fail()

	waitUntil(t, 3*time.Second, func() bool {
		return atomic.LoadInt32(&unhealthy.startCount) == 2
	})

	if atomic.LoadInt32(&unhealthy.stopCount) == 0 {
		t.Fatalf("expected unhealthy tunnel to be stopped before restart")
	}
	if atomic.LoadInt32(&healthy.startCount) != 1 {
		t.Fatalf("healthy tunnel should not have been restarted, startCount=%d", healthy.startCount)
	}
	if m := s.Metrics(); m.TunnelRestarts == 0 {
		t.Fatalf("expected TunnelRestarts to be incremented")
	}

	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for Run to return after Stop")
	}

	if atomic.LoadInt32(&healthy.stopCount) == 0 {
		t.Fatalf("expected healthy tunnel to be stopped on supervisor shutdown")
	}
}

func TestSupervisorStopTearsDownBeforeAnyRestart(t *testing.T) {
	only := newFakeTunnel("only", true)
	s := newSupervisor([]tunnelRunner{only}, testLogger())

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	waitUntil(t, time.Second, func() bool { return atomic.LoadInt32(&only.startCount) == 1 })

	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}

	if atomic.LoadInt32(&only.stopCount) != 1 {
		t.Fatalf("stopCount = %d, want 1", only.stopCount)
	}
}
