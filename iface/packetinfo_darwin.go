//go:build darwin

package iface

// macOS's utun driver prepends a 4-byte address-family header to every
// frame it hands to user-space, and expects the same on write.
const packetInfoHeaderLen = 4

const (
	darwinAFInet  = 2
	darwinAFInet6 = 30
)

var (
	headerIPv4 = [packetInfoHeaderLen]byte{0, 0, 0, darwinAFInet}
	headerIPv6 = [packetInfoHeaderLen]byte{0, 0, 0, darwinAFInet6}
)

func stripPacketInfo(b []byte) []byte {
	if len(b) < packetInfoHeaderLen {
		return b
	}
	return b[packetInfoHeaderLen:]
}

func prependPacketInfo(pkt []byte) []byte {
	header := headerIPv4
	if len(pkt) > 0 && pkt[0]>>4 == 6 {
		header = headerIPv6
	}
	out := make([]byte, 0, packetInfoHeaderLen+len(pkt))
	out = append(out, header[:]...)
	out = append(out, pkt...)
	return out
}
