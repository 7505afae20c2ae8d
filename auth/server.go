package auth

import (
	"net"
	"time"
)

// ServerHandshake runs the server half of the authentication exchange on
// stream: it waits (with the given timeout) for a ClientHello, validates
// it against users, and replies with Accepted{assignedAddress} or
// Rejected. assignedAddress is the lease the tunnel's accept loop already
// allocated for this connection before the handshake began (spec's
// accept-loop-allocates-first flow); on success it is exactly what gets
// echoed back to the client.
//
// Returns the authenticated user ID on success. On any failure it
// returns an error and the caller is responsible for transitioning the
// connection's Status to StateFailed.
func ServerHandshake(stream Stream, timeout time.Duration, users *UserDatabase, assignedAddress *net.IPNet) (userID string, err error) {
	if err := stream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}

	frame, err := readFrame(stream)
	if err != nil {
		return "", ErrAuthTimeout
	}

	hello, err := decodeClientHello(frame)
	if err != nil {
		return "", err
	}

	if users.Empty() {
		return "", rejectAndReturn(stream, RejectInvalidCredentials, ErrAuthRejected)
	}

	uid, ok := users.Authenticate(hello.Username, hello.Password)
	if !ok {
		return "", rejectAndReturn(stream, RejectInvalidCredentials, ErrAuthRejected)
	}

	reply, err := encodeServerHello(ServerHello{Accepted: true, Address: assignedAddress})
	if err != nil {
		return "", err
	}
	if err := writeFrame(stream, reply); err != nil {
		return "", err
	}

	return uid, nil
}

func rejectAndReturn(stream Stream, code RejectCode, retErr error) error {
	reply, err := encodeServerHello(ServerHello{Accepted: false, RejectCode: code})
	if err == nil {
		_ = writeFrame(stream, reply)
	}
	return retErr
}
