package client

import (
	"context"
	"net"

	"github.com/cppla/rumble/auth"
	"github.com/quic-go/quic-go"
)

// serverConnection abstracts the subset of a QUIC connection the client
// needs, the same seam server.PeerConnection uses on the accept side.
type serverConnection interface {
	OpenStreamSync(ctx context.Context) (auth.Stream, error)
	SendDatagram(data []byte) error
	ReceiveDatagram(ctx context.Context) ([]byte, error)
	MaxDatagramSize() int
	CloseWithError(code uint64, reason string) error
	RemoteAddr() net.Addr
}

type quicConnAdapter struct {
	conn quic.Connection
}

func wrapConnection(conn quic.Connection) serverConnection {
	return &quicConnAdapter{conn: conn}
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

func (a *quicConnAdapter) MaxDatagramSize() int {
	return int(a.conn.MaxDatagramSize())
}

func (a *quicConnAdapter) CloseWithError(code uint64, reason string) error {
	return a.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}

func (a *quicConnAdapter) RemoteAddr() net.Addr {
	return a.conn.RemoteAddr()
}
