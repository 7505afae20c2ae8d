//go:build !darwin

package iface

// Linux (and other) TUN drivers used here hand back raw IP frames with
// no packet-info prefix.
const packetInfoHeaderLen = 0

func stripPacketInfo(b []byte) []byte    { return b }
func prependPacketInfo(pkt []byte) []byte { return pkt }
