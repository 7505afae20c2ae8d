package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cppla/rumble/auth"
	"github.com/cppla/rumble/pool"
)

// fakePeer implements PeerConnection over a net.Pipe-backed auth stream and
// in-memory datagram channels, so Connection can be exercised without a
// real QUIC connection.
type fakePeer struct {
	streamServer net.Conn
	streamClient net.Conn
	streamTaken  bool

	datagramsOut chan []byte
	datagramsIn  chan []byte
	closed       chan struct{}

	remoteAddr net.Addr
	maxSize    int
}

func newFakePeer() *fakePeer {
	server, client := net.Pipe()
	return &fakePeer{
		streamServer: server,
		streamClient: client,
		datagramsOut: make(chan []byte, 8),
		datagramsIn:  make(chan []byte, 8),
		closed:       make(chan struct{}),
		remoteAddr:   &net.IPAddr{IP: net.ParseIP("192.0.2.1")},
		maxSize:      1200,
	}
}

func (f *fakePeer) AcceptStream(ctx context.Context) (auth.Stream, error) {
	if f.streamTaken {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.streamTaken = true
	return f.streamServer, nil
}

func (f *fakePeer) OpenStreamSync(ctx context.Context) (auth.Stream, error) {
	return f.streamServer, nil
}

func (f *fakePeer) SendDatagram(data []byte) error {
	cp := append([]byte(nil), data...)
	select {
	case f.datagramsOut <- cp:
		return nil
	default:
		return nil
	}
}

func (f *fakePeer) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	select {
	case d := <-f.datagramsIn:
		return d, nil
	case <-f.closed:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakePeer) RemoteAddr() net.Addr { return f.remoteAddr }
func (f *fakePeer) MaxDatagramSize() int { return f.maxSize }
func (f *fakePeer) CloseWithError(code uint64, reason string) error {
	close(f.closed)
	return nil
}

func testLease() pool.Lease {
	return pool.Lease{IP: net.ParseIP("10.8.0.2"), Mask: net.CIDRMask(29, 32)}
}

func TestConnectionAuthenticateThenForwardsDatagrams(t *testing.T) {
	users := auth.NewUserDatabase(map[string]string{"alice": "secret"})
	peer := newFakePeer()
	lease := testLease()
	inbound := newByteQueue()
	defer inbound.Close()

	conn := NewConnection(peer, users, lease, time.Second, inbound, &Metrics{}, testLogger())

	clientDone := make(chan error, 1)
	go func() {
		_, err := auth.ClientHandshake(peer.streamClient, time.Second, "alice", "secret")
		clientDone <- err
	}()

	if err := conn.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer conn.Stop()

	select {
	case err := <-clientDone:
		if err != nil {
			t.Fatalf("ClientHandshake: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for client handshake")
	}

	waitUntil(t, time.Second, func() bool { return conn.Status().IsAuthenticated() })

	peer.datagramsIn <- []byte("payload")
	select {
	case got := <-inbound.Recv():
		if string(got) != "payload" {
			t.Fatalf("got %q, want %q", got, "payload")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for forwarded datagram")
	}
}

func TestConnectionSendDatagramBeforeAuthFails(t *testing.T) {
	users := auth.NewUserDatabase(map[string]string{"alice": "secret"})
	peer := newFakePeer()
	inbound := newByteQueue()
	defer inbound.Close()

	conn := NewConnection(peer, users, testLease(), time.Second, inbound, &Metrics{}, testLogger())

	if err := conn.SendDatagram([]byte("x")); err != ErrNotAuthenticated {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
}

func TestConnectionAuthenticateWrongPasswordFails(t *testing.T) {
	users := auth.NewUserDatabase(map[string]string{"alice": "secret"})
	peer := newFakePeer()
	inbound := newByteQueue()
	defer inbound.Close()

	conn := NewConnection(peer, users, testLease(), time.Second, inbound, &Metrics{}, testLogger())

	go auth.ClientHandshake(peer.streamClient, time.Second, "alice", "wrong")

	if err := conn.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer conn.Stop()

	waitUntil(t, time.Second, func() bool {
		state, _ := conn.Status().Get()
		return state == auth.StateFailed
	})
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
