package utils

import (
	"fmt"
	"net"

	"go.uber.org/zap"
)

// BindSocket opens a UDP socket on addr and applies the requested send and
// receive buffer sizes, warning (not failing) if the kernel grants less
// than asked for.
func BindSocket(logger *zap.Logger, addr *net.UDPAddr, sendBufferSize, recvBufferSize int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding udp socket %s: %w", addr, err)
	}

	if sendBufferSize > 0 {
		if err := conn.SetWriteBuffer(sendBufferSize); err != nil {
			logger.Warn("unable to set send buffer size", zap.Error(err))
		}
	}
	if recvBufferSize > 0 {
		if err := conn.SetReadBuffer(recvBufferSize); err != nil {
			logger.Warn("unable to set recv buffer size", zap.Error(err))
		}
	}

	return conn, nil
}
