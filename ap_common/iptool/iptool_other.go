// +build !linux,!darwin

/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package iptool

func get(name string) (*Config, error) {
	return nil, ErrUnsupported
}

func update(cfg *Config) error {
	return ErrUnsupported
}
