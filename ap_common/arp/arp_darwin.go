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
	"os/exec"
	"strings"

	"redsafe/common/network"
)

// lookup shells out to arp(8), which reads the routing table's link-layer
// entries.  Output lines look like:
//	? (192.168.1.42) at a:bb:c:dd:ee:ff on en0 ifscope [ethernet]
func lookup(ip net.IP) string {
	out, err := exec.Command("arp", "-an").Output()
	if err != nil {
		return ""
	}

	needle := "(" + ip.String() + ")"
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[1] != needle || fields[2] != "at" {
			continue
		}
		if mac := padMac(fields[3]); mac != "" {
			return mac
		}
	}
	return ""
}

// padMac restores the leading zeroes arp(8) strips from each octet.
func padMac(s string) string {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return ""
	}
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		} else if len(p) != 2 {
			return ""
		}
	}
	return network.NormalizeMac(strings.Join(parts, ":"))
}
