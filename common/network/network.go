/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package network contains helper functions for formatting and validating
// the hardware and IPv4 addresses that flow through scan results and the
// IPtool facade.
package network

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

var (
	// MacZero is the all-zeroes ethernet address.
	MacZero = net.HardwareAddr([]byte{0, 0, 0, 0, 0, 0})

	validMacRE = regexp.MustCompile(`^[0-9A-F]{2}(:[0-9A-F]{2}){5}$`)
)

// FormatHWAddr renders a 6-byte ethernet address as upper-case
// colon-separated hex ("AA:BB:CC:DD:EE:FF").  Addresses of any other
// length, and the all-zeroes address, render as the empty string.
func FormatHWAddr(hw net.HardwareAddr) string {
	if len(hw) != 6 || MacZero.String() == hw.String() {
		return ""
	}
	return strings.ToUpper(hw.String())
}

// NormalizeMac reduces a MAC found in a discovery scope to its canonical
// form: strip everything but hex digits, upper-case, and re-insert colons
// every two characters.  Values that don't reduce to exactly 12 hex digits
// are returned stripped but uncolonized.
func NormalizeMac(s string) string {
	var hex strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') {
			hex.WriteRune(r)
		}
	}
	h := hex.String()
	if len(h) != 12 {
		return h
	}
	parts := make([]string, 6)
	for i := 0; i < 6; i++ {
		parts[i] = h[2*i : 2*i+2]
	}
	return strings.Join(parts, ":")
}

// ValidMac reports whether s is a canonical upper-case colon-separated MAC.
func ValidMac(s string) bool {
	return validMacRE.MatchString(s)
}

// ValidIPv4 reports whether s is a dotted-quad IPv4 address.
func ValidIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && strings.Count(s, ".") == 3
}

// MaskToDotted converts a CIDR prefix length to its dotted-quad netmask.
//    e.g., 24 -> 255.255.255.0
func MaskToDotted(ones int) string {
	m := net.CIDRMask(ones, 32)
	if m == nil {
		return ""
	}
	return net.IP(m).String()
}

// DottedToMaskOnes converts a dotted-quad netmask back to a prefix length.
func DottedToMaskOnes(dotted string) (int, error) {
	ip := net.ParseIP(dotted)
	if ip == nil || ip.To4() == nil {
		return 0, fmt.Errorf("bad netmask %q", dotted)
	}
	ones, bits := net.IPMask(ip.To4()).Size()
	if bits != 32 {
		return 0, fmt.Errorf("non-contiguous netmask %q", dotted)
	}
	return ones, nil
}
