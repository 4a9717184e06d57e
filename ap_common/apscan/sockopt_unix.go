// +build linux darwin freebsd netbsd openbsd

/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package apscan

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr marks the discovery socket SO_REUSEADDR before bind, so a
// scan can start while a previous socket lingers in TIME_WAIT.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var soerr error
	err := c.Control(func(fd uintptr) {
		soerr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET,
			unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return soerr
}
