/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package arp resolves IPv4 addresses to hardware addresses using the
// host's neighbour cache.  It never probes the network; a miss simply
// returns the empty string.
package arp

import "net"

// Lookup returns the canonical upper-case MAC for ip, or "" when the
// neighbour cache has no complete entry.
func Lookup(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return ""
	}
	return lookup(parsed)
}
