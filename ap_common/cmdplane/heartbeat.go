/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package cmdplane

import (
	"encoding/json"
	"time"
)

// How long a fetched edge IP stays fresh before the next heartbeat
// re-queries the IPtool service.
const ipRefreshInterval = 10 * time.Minute

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var tzUTC8 = time.FixedZone("UTC+8", 8*60*60)

type heartbeat struct {
	EdgeID      string `json:"edge_id"`
	Version     string `json:"version"`
	HeartbeatAt string `json:"heartbeat_at"`
	Status      string `json:"status"`
	Sequence    uint64 `json:"sequence"`
	IP          string `json:"ip"`
}

// heartbeater produces the periodic status payloads.  It is driven from
// a single goroutine, so it keeps no lock of its own.
type heartbeater struct {
	edgeID  string
	version string
	fetchIP func() string

	seq  uint64
	ip   string
	ipAt time.Time
}

// payload renders the next heartbeat and advances the sequence number.
// The edge IP is refreshed at most every ipRefreshInterval, or sooner
// while it is still unknown.
func (h *heartbeater) payload(now time.Time) []byte {
	if h.ip == "" || now.Sub(h.ipAt) >= ipRefreshInterval {
		if ip := h.fetchIP(); ip != "" {
			h.ip = ip
			h.ipAt = now
		}
	}

	hb := heartbeat{
		EdgeID:      h.edgeID,
		Version:     h.version,
		HeartbeatAt: now.In(tzUTC8).Format(timestampLayout),
		Status:      "online",
		Sequence:    h.seq,
		IP:          h.ip,
	}
	h.seq++

	b, _ := json.Marshal(&hb)
	return b
}
