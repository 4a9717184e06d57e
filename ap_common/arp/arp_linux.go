/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package arp

import (
	"net"

	"redsafe/common/network"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// lookup dumps the kernel's IPv4 neighbour table and returns the entry
// for ip, skipping incomplete and failed states.
func lookup(ip net.IP) string {
	neighs, err := netlink.NeighList(0, unix.AF_INET)
	if err != nil {
		return ""
	}

	for _, n := range neighs {
		if !n.IP.Equal(ip) {
			continue
		}
		if n.State&(netlink.NUD_INCOMPLETE|netlink.NUD_FAILED) != 0 {
			continue
		}
		if mac := network.FormatHWAddr(n.HardwareAddr); mac != "" {
			return mac
		}
	}
	return ""
}
