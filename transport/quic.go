package transport

import "github.com/quic-go/quic-go"

// QUICConfig returns the quic-go configuration shared by the tunnel
// listener and the client dialer: unreliable datagrams enabled, reliable
// streams kept to what the auth handshake needs.
func QUICConfig() *quic.Config {
	return &quic.Config{
		EnableDatagrams:       true,
		MaxIncomingStreams:    16,
		MaxIncomingUniStreams: 0,
	}
}
