package server

import "net"

// parseDestination extracts the destination address from a raw IP
// packet (after any platform packet-info header has already been
// stripped), per spec §4.4: bytes 16-19 for IPv4, bytes 24-39 for IPv6.
// Returns false for anything else (too short, or an unrecognised IP
// version nibble).
func parseDestination(pkt []byte) (net.IP, bool) {
	if len(pkt) < 1 {
		return nil, false
	}

	switch pkt[0] >> 4 {
	case 4:
		if len(pkt) < 20 {
			return nil, false
		}
		return net.IP(append([]byte(nil), pkt[16:20]...)), true
	case 6:
		if len(pkt) < 40 {
			return nil, false
		}
		return net.IP(append([]byte(nil), pkt[24:40]...)), true
	default:
		return nil, false
	}
}
