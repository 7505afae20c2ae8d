package auth

import (
	"net"
	"time"
)

// ClientHandshake runs the client half of the authentication exchange: it
// sends a ClientHello and waits (with timeout) for the server's reply.
// On acceptance it returns the address the server assigned; on
// rejection or timeout it returns an error.
func ClientHandshake(stream Stream, timeout time.Duration, username, password string) (*net.IPNet, error) {
	payload, err := encodeClientHello(ClientHello{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	if err := writeFrame(stream, payload); err != nil {
		return nil, err
	}

	if err := stream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	frame, err := readFrame(stream)
	if err != nil {
		return nil, ErrAuthTimeout
	}

	reply, err := decodeServerHello(frame)
	if err != nil {
		return nil, err
	}

	if !reply.Accepted {
		return nil, ErrAuthRejected
	}

	return reply.Address, nil
}
