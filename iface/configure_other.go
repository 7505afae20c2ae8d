//go:build !linux

package iface

import (
	"fmt"
	"net"
	"os/exec"
)

// configureInterface assigns addr and mtu on platforms without a netlink
// socket, by shelling out to ifconfig. Linux gets the netlink path in
// configure_linux.go; this is the portable fallback for BSD/Darwin.
func configureInterface(name string, addr *net.IPNet, mtu int) error {
	ones, _ := addr.Mask.Size()
	target := fmt.Sprintf("%s/%d", addr.IP.String(), ones)

	args := []string{name, target, addr.IP.String()}
	if mtu > 0 {
		args = append(args, "mtu", fmt.Sprint(mtu))
	}
	args = append(args, "up")

	if out, err := exec.Command("ifconfig", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("ifconfig %v: %w (%s)", args, err, out)
	}

	return nil
}
