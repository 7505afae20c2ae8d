//go:build linux

package iface

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// configureInterface assigns addr and mtu to the named link and brings
// it up, using netlink directly rather than shelling out to `ip`.
func configureInterface(name string, addr *net.IPNet, mtu int) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("looking up link %q: %w", name, err)
	}

	if err := netlink.AddrAdd(link, &netlink.Addr{IPNet: addr}); err != nil {
		return fmt.Errorf("assigning address %s to %q: %w", addr, name, err)
	}

	if mtu > 0 {
		if err := netlink.LinkSetMTU(link, mtu); err != nil {
			return fmt.Errorf("setting mtu %d on %q: %w", mtu, name, err)
		}
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("bringing up %q: %w", name, err)
	}

	return nil
}
