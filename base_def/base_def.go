//
// COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
//
// This copyright notice is Copyright Management Information under 17 USC 1202
// and is included to protect this work and deter copyright infringement.
// Removal or alteration of this Copyright Management Information without the
// express written permission of Brightgate Inc is prohibited, and any
// such unauthorized removal or alteration will be a violation of federal law.
//
// RED-Safe shared constant definitions, Go

package base_def

import "time"

const (
	ZERO_UUID = "00000000-0000-0000-0000-000000000000"

	// WS-Discovery multicast rendezvous for ONVIF probes.
	WSDISC_MULTICAST_GROUP = "239.255.255.250"
	WSDISC_MULTICAST_PORT  = 3702
	WSDISC_MULTICAST_TTL   = 2

	// Edge-local gRPC services.  Plaintext; the LAN is the boundary.
	SCAND_GRPC_PORT   = 20001
	IPTOOLD_GRPC_PORT = 20002

	// Cloud gRPC services.
	USERD_GRPC_PORT  = ":4430"
	INFERD_GRPC_PORT = ":4432"

	EDGED_PROMETHEUS_PORT   = ":3200"
	SCAND_PROMETHEUS_PORT   = ":3201"
	IPTOOLD_PROMETHEUS_PORT = ":3202"
	USERD_PROMETHEUS_PORT   = ":3210"
	IOSD_PROMETHEUS_PORT    = ":3211"
	INFERD_PROMETHEUS_PORT  = ":3212"

	// MQTT topic suffixes; the full topic is "<edge_id>/<suffix>".
	TOPIC_COMMAND   = "cmd"
	TOPIC_DATA      = "data"
	TOPIC_HEARTBEAT = "status"

	// Command-plane dispatch codes.
	CMD_HEARTBEAT_ACK  = "100"
	CMD_IPC_SCAN       = "101"
	CMD_NETWORK_CONFIG = "102"
	CMD_SET_IPC_INFO   = "103"
	CMD_DEL_IPC_INFO   = "104"

	MQTT_KEEPALIVE     = 30 * time.Second
	WATCHDOG_INTERVAL  = 60 * time.Second
	RECONNECT_BACKOFF_MIN = 1 * time.Second
	RECONNECT_BACKOFF_MAX = 30 * time.Second

	HEARTBEAT_INTERVAL_DEFAULT = 1 * time.Second
	HEARTBEAT_INTERVAL_MIN     = 100 * time.Millisecond
	SCAN_TIMEOUT_DEFAULT       = 3 * time.Second
	SCAN_TIMEOUT_MIN           = 500 * time.Millisecond
	EDGE_HTTP_TIMEOUT          = 5 * time.Second

	// Token lifetimes.
	ACCESS_TOKEN_ISSUER  = "RED-Safe"
	ACCESS_TOKEN_TTL     = 10 * time.Minute
	REFRESH_TOKEN_TTL    = 30 * 24 * time.Hour
	REFRESH_TOKEN_COOKIE = "refresh_token"

	// Fall inference feature vector width.
	INFER_FEATURE_COUNT = 9
)
