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

	"redsafe/common/network"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// defaultRouteLink resolves the link owning the IPv4 default route.
func defaultRouteLink() (netlink.Link, error) {
	routes, err := netlink.RouteList(nil, unix.AF_INET)
	if err != nil {
		return nil, errors.Wrap(err, "listing routes")
	}
	for _, r := range routes {
		if r.Dst != nil {
			continue
		}
		link, err := netlink.LinkByIndex(r.LinkIndex)
		if err != nil {
			return nil, errors.Wrap(err, "resolving default route link")
		}
		return link, nil
	}
	return nil, ErrNotFound
}

func linkByName(name string) (netlink.Link, error) {
	if name == "" {
		return defaultRouteLink()
	}
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "looking up %s", name)
	}
	return link, nil
}

func get(name string) (*Config, error) {
	link, err := linkByName(name)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Interface: link.Attrs().Name,
		Mac:       network.FormatHWAddr(link.Attrs().HardwareAddr),
		DNS:       readDNS(),
		Mode:      "dhcp",
	}

	addrs, err := netlink.AddrList(link, unix.AF_INET)
	if err != nil {
		return nil, errors.Wrap(err, "listing addresses")
	}
	if len(addrs) > 0 {
		a := addrs[0]
		cfg.IP = a.IP.String()
		ones, _ := a.Mask.Size()
		cfg.Subnet = network.MaskToDotted(ones)
		if a.Flags&unix.IFA_F_PERMANENT != 0 {
			cfg.Mode = "static"
		}
	}

	routes, err := netlink.RouteList(link, unix.AF_INET)
	if err != nil {
		return nil, errors.Wrap(err, "listing routes")
	}
	for _, r := range routes {
		if r.Dst == nil && r.Gw != nil {
			cfg.Gateway = r.Gw.String()
			break
		}
	}

	return cfg, nil
}

func update(cfg *Config) error {
	link, err := linkByName(cfg.Interface)
	if err != nil {
		return err
	}

	if cfg.IP != "" {
		ip := net.ParseIP(cfg.IP)
		if ip == nil || ip.To4() == nil {
			return errors.Errorf("bad ip %q", cfg.IP)
		}
		ones := 24
		if cfg.Subnet != "" {
			if ones, err = network.DottedToMaskOnes(cfg.Subnet); err != nil {
				return err
			}
		}
		addr := &netlink.Addr{
			IPNet: &net.IPNet{
				IP:   ip.To4(),
				Mask: net.CIDRMask(ones, 32),
			},
		}
		if err = netlink.AddrReplace(link, addr); err != nil {
			return errors.Wrap(err, "replacing address")
		}
	}

	if cfg.Gateway != "" {
		gw := net.ParseIP(cfg.Gateway)
		if gw == nil {
			return errors.Errorf("bad gateway %q", cfg.Gateway)
		}
		route := &netlink.Route{
			LinkIndex: link.Attrs().Index,
			Gw:        gw,
		}
		if err = netlink.RouteReplace(route); err != nil {
			return errors.Wrap(err, "replacing default route")
		}
	}

	if len(cfg.DNS) > 0 {
		if err = writeDNS(cfg.DNS); err != nil {
			return err
		}
	}

	return nil
}
