package server

import (
	"context"
	"net"

	"github.com/cppla/rumble/auth"
	"github.com/quic-go/quic-go"
)

// PeerConnection abstracts the subset of a QUIC connection the tunnel
// runtime needs. Production code wraps a real *quic-go* connection;
// tests wrap an in-memory fake. This is the same seam
// Adm0-usque's TunnelDevice interface uses to decouple TUN device
// implementations from the code that drives them.
type PeerConnection interface {
	AcceptStream(ctx context.Context) (auth.Stream, error)
	OpenStreamSync(ctx context.Context) (auth.Stream, error)
	SendDatagram(data []byte) error
	ReceiveDatagram(ctx context.Context) ([]byte, error)
	RemoteAddr() net.Addr
	MaxDatagramSize() int
	CloseWithError(code uint64, reason string) error
}

type quicConnAdapter struct {
	conn quic.Connection
}

// WrapConnection adapts a quic-go connection to PeerConnection.
func WrapConnection(conn quic.Connection) PeerConnection {
	return &quicConnAdapter{conn: conn}
}

func (a *quicConnAdapter) AcceptStream(ctx context.Context) (auth.Stream, error) {
	return a.conn.AcceptStream(ctx)
}

func (a *quicConnAdapter) OpenStreamSync(ctx context.Context) (auth.Stream, error) {
	return a.conn.OpenStreamSync(ctx)
}

func (a *quicConnAdapter) SendDatagram(data []byte) error {
	return a.conn.SendDatagram(data)
}

func (a *quicConnAdapter) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return a.conn.ReceiveDatagram(ctx)
}

func (a *quicConnAdapter) RemoteAddr() net.Addr {
	return a.conn.RemoteAddr()
}

func (a *quicConnAdapter) MaxDatagramSize() int {
	return int(a.conn.MaxDatagramSize())
}

func (a *quicConnAdapter) CloseWithError(code uint64, reason string) error {
	return a.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}
