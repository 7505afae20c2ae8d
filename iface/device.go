// Package iface wraps the kernel TUN device: opening it, configuring its
// address and MTU, and handling the platform packet-info header some
// drivers prepend to every frame.
package iface

import (
	"fmt"
	"net"

	"github.com/songgao/water"
)

// Device is a bidirectional stream of raw IP frames, with any
// platform packet-info header stripped on read / reattached on write so
// that callers always see a plain IP packet.
type Device struct {
	iface *water.Interface
	mtu   int
}

// Open creates a new TUN device with the given IP MTU (the MTU inside the
// tunnel; the platform header, when present, is extra).
func Open(mtu int) (*Device, error) {
	ifce, err := water.New(water.Config{DeviceType: water.TUN})
	if err != nil {
		return nil, fmt.Errorf("opening tun device: %w", err)
	}
	return &Device{iface: ifce, mtu: mtu}, nil
}

// Name returns the OS-assigned interface name (e.g. "tun0" or "utun3").
func (d *Device) Name() string {
	return d.iface.Name()
}

// ConfigureAddress assigns addr to the device and brings it up.
func (d *Device) ConfigureAddress(addr *net.IPNet) error {
	return configureInterface(d.Name(), addr, d.mtu)
}

// ReadPacket reads one IP frame into buf, stripping the platform
// packet-info header where the driver requires one. Returns the number
// of IP-payload bytes written into buf.
func (d *Device) ReadPacket(buf []byte) (int, error) {
	scratch := make([]byte, len(buf)+packetInfoHeaderLen)
	n, err := d.iface.Read(scratch)
	if err != nil {
		return 0, err
	}
	payload := stripPacketInfo(scratch[:n])
	copied := copy(buf, payload)
	return copied, nil
}

// WritePacket writes one IP frame, prepending the platform packet-info
// header where the driver requires one.
func (d *Device) WritePacket(pkt []byte) error {
	framed := prependPacketInfo(pkt)
	_, err := d.iface.Write(framed)
	return err
}

// Close releases the device.
func (d *Device) Close() error {
	return d.iface.Close()
}
