/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package edgecfg loads the edge agent's environment-variable based
// configuration.  Durations arrive as millisecond counts in string form;
// malformed values log a warning and fall back to the default rather than
// failing the daemon.
package edgecfg

import (
	"fmt"
	"strconv"
	"time"

	"redsafe/base_def"

	"github.com/pkg/errors"
	"github.com/tomazk/envcfg"
	"go.uber.org/zap"
)

// environ mirrors the raw environment.  Numeric knobs are strings so a
// bad value can fall back instead of aborting envcfg.Unmarshal.
type environ struct {
	EdgeID        string `envcfg:"RED_SAFE_EDGE_ID"`
	Version       string `envcfg:"RED_SAFE_EDGE_VERSION"`
	IP            string `envcfg:"RED_SAFE_EDGE_IP"`
	Interface     string `envcfg:"RED_SAFE_NETWORK_INTERFACE"`
	IPToolTarget  string `envcfg:"RED_SAFE_IPTOOL_TARGET"`
	ServerURL     string `envcfg:"RED_SAFE_SERVER_URL"`
	MQTTBroker    string `envcfg:"RED_SAFE_MQTT_BROKER"`
	MQTTPort      string `envcfg:"RED_SAFE_MQTT_PORT"`
	MQTTUsername  string `envcfg:"RED_SAFE_MQTT_USERNAME"`
	MQTTPassword  string `envcfg:"RED_SAFE_MQTT_PASSWORD"`
	HeartbeatMs   string `envcfg:"RED_SAFE_HEARTBEAT_MS"`
	ScanTimeoutMs string `envcfg:"RED_SAFE_IPCSCAN_TIMEOUT_MS"`
}

// EdgeConfig is the resolved edge agent configuration.
type EdgeConfig struct {
	EdgeID       string
	Version      string
	IP           string
	Interface    string
	IPToolTarget string
	ServerURL    string

	MQTTBroker   string
	MQTTPort     int
	MQTTUsername string
	MQTTPassword string

	HeartbeatInterval time.Duration
	ScanTimeout       time.Duration
}

// BrokerURL renders the websocket URL the MQTT session dials.
func (c *EdgeConfig) BrokerURL() string {
	return fmt.Sprintf("wss://%s:%d/mqtt", c.MQTTBroker, c.MQTTPort)
}

func intOr(slog *zap.SugaredLogger, name, raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warnf("bad %s %q; using default %d", name, raw, def)
		return def
	}
	return v
}

func msOr(slog *zap.SugaredLogger, name, raw string, def, min time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warnf("bad %s %q; using default %s", name, raw, def)
		return def
	}
	d := time.Duration(ms) * time.Millisecond
	if d < min {
		slog.Warnf("%s %s below minimum; clamping to %s", name, d, min)
		return min
	}
	return d
}

// Load reads and resolves the RED_SAFE_* environment.
func Load(slog *zap.SugaredLogger) (*EdgeConfig, error) {
	var env environ
	if err := envcfg.Unmarshal(&env); err != nil {
		return nil, errors.Wrap(err, "unmarshaling environment")
	}

	if env.EdgeID == "" {
		return nil, errors.New("RED_SAFE_EDGE_ID is required")
	}
	if env.MQTTBroker == "" {
		return nil, errors.New("RED_SAFE_MQTT_BROKER is required")
	}

	cfg := &EdgeConfig{
		EdgeID:       env.EdgeID,
		Version:      env.Version,
		IP:           env.IP,
		Interface:    env.Interface,
		IPToolTarget: env.IPToolTarget,
		ServerURL:    env.ServerURL,
		MQTTBroker:   env.MQTTBroker,
		MQTTUsername: env.MQTTUsername,
		MQTTPassword: env.MQTTPassword,

		MQTTPort: intOr(slog, "RED_SAFE_MQTT_PORT", env.MQTTPort, 443),
		HeartbeatInterval: msOr(slog, "RED_SAFE_HEARTBEAT_MS",
			env.HeartbeatMs, base_def.HEARTBEAT_INTERVAL_DEFAULT,
			base_def.HEARTBEAT_INTERVAL_MIN),
		ScanTimeout: msOr(slog, "RED_SAFE_IPCSCAN_TIMEOUT_MS",
			env.ScanTimeoutMs, base_def.SCAN_TIMEOUT_DEFAULT,
			base_def.SCAN_TIMEOUT_MIN),
	}

	if cfg.IPToolTarget == "" {
		cfg.IPToolTarget = fmt.Sprintf("127.0.0.1:%d",
			base_def.IPTOOLD_GRPC_PORT)
	}

	return cfg, nil
}
