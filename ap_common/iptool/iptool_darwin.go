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

import (
	"net"
	"os/exec"
	"strings"

	"redsafe/common/network"

	"github.com/pkg/errors"
)

// defaultRouteInterface parses the `netstat -rn` default row.
func defaultRouteInterface() (string, string, error) {
	out, err := exec.Command("netstat", "-rn", "-f", "inet").Output()
	if err != nil {
		return "", "", errors.Wrap(err, "running netstat")
	}

	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "default" {
			continue
		}
		// Destination Gateway Flags ... Netif
		return fields[len(fields)-1], fields[1], nil
	}
	return "", "", ErrNotFound
}

func get(name string) (*Config, error) {
	gateway := ""
	if name == "" {
		var err error
		if name, gateway, err = defaultRouteInterface(); err != nil {
			return nil, err
		}
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, ErrNotFound
	}

	cfg := &Config{
		Interface: iface.Name,
		Mac:       network.FormatHWAddr(iface.HardwareAddr),
		Gateway:   gateway,
		DNS:       readDNS(),
		Mode:      "dhcp",
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, errors.Wrap(err, "listing addresses")
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.To4() == nil {
			continue
		}
		cfg.IP = ipnet.IP.String()
		ones, _ := ipnet.Mask.Size()
		cfg.Subnet = network.MaskToDotted(ones)
		break
	}

	if cfg.Gateway == "" {
		if ifname, gw, err := defaultRouteInterface(); err == nil &&
			ifname == iface.Name {
			cfg.Gateway = gw
		}
	}

	return cfg, nil
}

func update(cfg *Config) error {
	if _, err := net.InterfaceByName(cfg.Interface); err != nil {
		return ErrNotFound
	}

	if cfg.IP != "" {
		mask := cfg.Subnet
		if mask == "" {
			mask = "255.255.255.0"
		}
		out, err := exec.Command("ifconfig", cfg.Interface, "inet",
			cfg.IP, "netmask", mask).CombinedOutput()
		if err != nil {
			return errors.Wrapf(err, "ifconfig: %s",
				strings.TrimSpace(string(out)))
		}
	}

	if cfg.Gateway != "" {
		out, err := exec.Command("route", "-n", "change", "default",
			cfg.Gateway).CombinedOutput()
		if err != nil {
			return errors.Wrapf(err, "route: %s",
				strings.TrimSpace(string(out)))
		}
	}

	if len(cfg.DNS) > 0 {
		if err := writeDNS(cfg.DNS); err != nil {
			return err
		}
	}

	return nil
}
