/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"context"
	"encoding/json"
	"time"

	"redsafe/ap_common/apscan"
	"redsafe/ap_common/cmdplane"
	"redsafe/ap_common/edgecfg"
	"redsafe/base_def"
	"redsafe/edge_rpc"
)

// scanner is the subset of the scan engine the handlers need.
type scanner interface {
	Scan(timeout time.Duration) ([]apscan.DeviceInfo, error)
}

// handlers maps command codes onto the edge's local capabilities.
type handlers struct {
	cfg    *edgecfg.EdgeConfig
	state  *edgecfg.State
	engine scanner
	net    edge_rpc.NetworkServiceClient
}

// ipcScan runs one camera discovery pass.  A failed scan still gets an
// ok reply with an empty array; the app treats that as "no cameras".
func (h *handlers) ipcScan(_ context.Context, cmd *cmdplane.Command) *cmdplane.Reply {
	devices, err := h.engine.Scan(h.cfg.ScanTimeout)
	if err != nil {
		slog.Warnf("scan failed (trace %s): %v", cmd.TraceID, err)
		devices = nil
	}
	if devices == nil {
		devices = []apscan.DeviceInfo{}
	}
	return cmdplane.OkReply(cmd, devices)
}

// networkConfig fetches the effective interface configuration from
// ap.iptoold.
func (h *handlers) networkConfig(ctx context.Context, cmd *cmdplane.Command) *cmdplane.Reply {
	ctx, cancel := context.WithTimeout(ctx, base_def.EDGE_HTTP_TIMEOUT)
	defer cancel()

	resp, err := h.net.GetNetworkConfig(ctx,
		&edge_rpc.GetNetworkConfigRequest{InterfaceName: h.cfg.Interface})
	if err != nil {
		slog.Warnf("network config (trace %s): %v", cmd.TraceID, err)
		return cmdplane.ErrorReply(cmd, "network config unavailable")
	}

	dns := resp.Dns
	if dns == nil {
		dns = []string{}
	}
	return cmdplane.OkReply(cmd, map[string]interface{}{
		"interface": resp.InterfaceName,
		"ip":        resp.Ip,
		"mac":       resp.Mac,
		"gateway":   resp.Gateway,
		"subnet":    resp.Subnet,
		"dns":       dns,
		"mode":      resp.Mode,
	})
}

// setIpcInfo persists one operator-pinned camera record.
func (h *handlers) setIpcInfo(_ context.Context, cmd *cmdplane.Command) *cmdplane.Reply {
	var info edgecfg.IpcInfo
	if len(cmd.Payload) == 0 {
		return cmdplane.ErrorReply(cmd, "missing payload")
	}
	if err := json.Unmarshal(cmd.Payload, &info); err != nil {
		return cmdplane.ErrorReply(cmd, "malformed payload")
	}
	if err := h.state.SetIpc(info); err != nil {
		slog.Errorf("saving ipc info (trace %s): %v", cmd.TraceID, err)
		return cmdplane.ErrorReply(cmd, "saving ipc info failed")
	}
	return cmdplane.OkReply(cmd, info)
}

// delIpcInfo removes a pinned camera record; removing an unknown one is
// not an error.
func (h *handlers) delIpcInfo(_ context.Context, cmd *cmdplane.Command) *cmdplane.Reply {
	var req struct {
		IP string `json:"ip"`
	}
	if len(cmd.Payload) == 0 {
		return cmdplane.ErrorReply(cmd, "missing payload")
	}
	if err := json.Unmarshal(cmd.Payload, &req); err != nil || req.IP == "" {
		return cmdplane.ErrorReply(cmd, "malformed payload")
	}
	if err := h.state.DelIpc(req.IP); err != nil {
		slog.Errorf("deleting ipc info (trace %s): %v", cmd.TraceID, err)
		return cmdplane.ErrorReply(cmd, "deleting ipc info failed")
	}
	return cmdplane.OkReply(cmd, map[string]string{"ip": req.IP})
}
