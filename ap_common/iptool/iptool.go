/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package iptool reads and writes the effective network configuration of
// a named interface.  An empty interface name selects the interface that
// owns the default route.
package iptool

import (
	"bufio"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel errors; the gRPC facade maps these onto status codes.
var (
	// ErrNotFound reports that the named interface does not exist, or
	// that no default route could be resolved.
	ErrNotFound = errors.New("interface not found")

	// ErrUnsupported reports that this platform has no implementation.
	ErrUnsupported = errors.New("unsupported platform")
)

// Config is the effective configuration of one interface.
type Config struct {
	Interface string
	IP        string
	Mac       string
	Gateway   string
	Subnet    string
	DNS       []string
	Mode      string
}

const resolvConf = "/etc/resolv.conf"

// Get returns the configuration of the named interface, or of the
// default-route interface when name is empty.
func Get(name string) (*Config, error) {
	return get(name)
}

// Update applies cfg to the interface it names.  Empty fields are left
// untouched.
func Update(cfg *Config) error {
	if cfg.Interface == "" {
		return errors.New("interface name is required")
	}
	return update(cfg)
}

// readDNS collects the nameserver entries from resolv.conf.
func readDNS() []string {
	f, err := os.Open(resolvConf)
	if err != nil {
		return nil
	}
	defer f.Close()

	var servers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "nameserver" {
			servers = append(servers, fields[1])
		}
	}
	return servers
}

// writeDNS atomically rewrites resolv.conf with the given servers.
func writeDNS(servers []string) error {
	var b strings.Builder
	for _, s := range servers {
		b.WriteString("nameserver " + s + "\n")
	}

	dir := filepath.Dir(resolvConf)
	tmp, err := ioutil.TempFile(dir, ".resolv-*")
	if err != nil {
		return errors.Wrap(err, "creating resolv.conf temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing resolv.conf temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing resolv.conf temp file")
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "setting resolv.conf mode")
	}
	return errors.Wrap(os.Rename(tmp.Name(), resolvConf), "renaming resolv.conf")
}
