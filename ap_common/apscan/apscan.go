/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package apscan discovers IP cameras on the local segment.  A scan
// multicasts one WS-Discovery probe, collects replies until the deadline,
// and aggregates them into per-source DeviceInfo records: deduplicated by
// source IP, insertion-ordered, MACs backfilled from the host ARP cache.
package apscan

import (
	"context"
	"net"
	"sync"
	"time"

	"redsafe/ap_common/arp"
	"redsafe/base_def"
	"redsafe/common/wsdisc"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

const readBufSize = 8192

// DeviceInfo describes one discovered camera.
type DeviceInfo struct {
	IP   string `json:"ip"`
	Mac  string `json:"mac"`
	Name string `json:"name"`
}

// DefaultName is assigned to devices whose scopes carry no name.
const DefaultName = "IPC"

// Engine runs discovery scans.  Each Scan owns its own socket; the mutex
// serialises concurrent callers sharing one engine.
type Engine struct {
	mu sync.Mutex

	// lookupMac is swappable under test.
	lookupMac func(ip string) string
}

// NewEngine returns an Engine backed by the host ARP cache.
func NewEngine() *Engine {
	return &Engine{lookupMac: arp.Lookup}
}

// Scan probes the local segment and returns the discovered devices.
// Socket setup failure is fatal to the caller; malformed replies are
// skipped.
func (e *Engine) Scan(timeout time.Duration) ([]DeviceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, errors.Wrap(err, "opening discovery socket")
	}
	defer conn.Close()

	p := ipv4.NewPacketConn(conn)
	if err = p.SetMulticastTTL(base_def.WSDISC_MULTICAST_TTL); err != nil {
		return nil, errors.Wrap(err, "setting multicast TTL")
	}

	dst := &net.UDPAddr{
		IP:   net.ParseIP(base_def.WSDISC_MULTICAST_GROUP),
		Port: base_def.WSDISC_MULTICAST_PORT,
	}
	if _, err = conn.WriteTo(wsdisc.BuildProbe(), dst); err != nil {
		return nil, errors.Wrap(err, "sending probe")
	}

	if err = conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, errors.Wrap(err, "setting read deadline")
	}

	agg := newAggregator()
	buf := make([]byte, readBufSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			return nil, errors.Wrap(err, "collecting replies")
		}
		udp, ok := addr.(*net.UDPAddr)
		if !ok || udp.IP.To4() == nil {
			continue
		}
		agg.add(udp.IP.String(), buf[:n])
	}

	return e.enrich(agg.results()), nil
}

// enrich backfills missing MACs from the ARP cache and applies the
// default device name.
func (e *Engine) enrich(devices []DeviceInfo) []DeviceInfo {
	for i := range devices {
		if devices[i].Mac == "" {
			devices[i].Mac = e.lookupMac(devices[i].IP)
		}
		if devices[i].Name == "" {
			devices[i].Name = DefaultName
		}
	}
	return devices
}

// aggregator folds probe replies into insertion-ordered, per-IP records.
type aggregator struct {
	order   []string
	devices map[string]*DeviceInfo
}

func newAggregator() *aggregator {
	return &aggregator{
		devices: make(map[string]*DeviceInfo),
	}
}

// add folds one reply in.  A source already seen keeps its slot; its
// attributes fill in only where still empty.
func (a *aggregator) add(srcIP string, payload []byte) {
	dev, seen := a.devices[srcIP]
	if !seen {
		dev = &DeviceInfo{IP: srcIP}
		a.devices[srcIP] = dev
		a.order = append(a.order, srcIP)
	}

	// A reply with no Scopes still counts; the record keeps its IP.
	info, ok := wsdisc.ParseScopes(payload)
	if !ok {
		return
	}
	if dev.Mac == "" {
		dev.Mac = info.Mac
	}
	if dev.Name == "" {
		dev.Name = info.Name
	}
}

func (a *aggregator) results() []DeviceInfo {
	out := make([]DeviceInfo, 0, len(a.order))
	for _, ip := range a.order {
		out = append(out, *a.devices[ip])
	}
	return out
}
