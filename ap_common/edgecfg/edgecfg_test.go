/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package edgecfg

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearEnv() {
	for _, v := range []string{"RED_SAFE_EDGE_ID", "RED_SAFE_EDGE_VERSION",
		"RED_SAFE_EDGE_IP", "RED_SAFE_NETWORK_INTERFACE",
		"RED_SAFE_IPTOOL_TARGET", "RED_SAFE_SERVER_URL",
		"RED_SAFE_MQTT_BROKER", "RED_SAFE_MQTT_PORT",
		"RED_SAFE_MQTT_USERNAME", "RED_SAFE_MQTT_PASSWORD",
		"RED_SAFE_HEARTBEAT_MS", "RED_SAFE_IPCSCAN_TIMEOUT_MS"} {
		os.Unsetenv(v)
	}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestLoadDefaults(t *testing.T) {
	clearEnv()
	os.Setenv("RED_SAFE_EDGE_ID", "RED-0A1B2C3D")
	os.Setenv("RED_SAFE_MQTT_BROKER", "broker.example.com")

	cfg, err := Load(testLogger())
	require.NoError(t, err)

	assert.Equal(t, "RED-0A1B2C3D", cfg.EdgeID)
	assert.Equal(t, 443, cfg.MQTTPort)
	assert.Equal(t, time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 3*time.Second, cfg.ScanTimeout)
	assert.Equal(t, "127.0.0.1:20002", cfg.IPToolTarget)
	assert.Equal(t, "wss://broker.example.com:443/mqtt", cfg.BrokerURL())
}

func TestLoadBadIntegersFallBack(t *testing.T) {
	clearEnv()
	os.Setenv("RED_SAFE_EDGE_ID", "RED-0A1B2C3D")
	os.Setenv("RED_SAFE_MQTT_BROKER", "broker.example.com")
	os.Setenv("RED_SAFE_MQTT_PORT", "not-a-port")
	os.Setenv("RED_SAFE_HEARTBEAT_MS", "soon")

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, 443, cfg.MQTTPort)
	assert.Equal(t, time.Second, cfg.HeartbeatInterval)
}

func TestLoadMinimumsClamped(t *testing.T) {
	clearEnv()
	os.Setenv("RED_SAFE_EDGE_ID", "RED-0A1B2C3D")
	os.Setenv("RED_SAFE_MQTT_BROKER", "broker.example.com")
	os.Setenv("RED_SAFE_HEARTBEAT_MS", "10")
	os.Setenv("RED_SAFE_IPCSCAN_TIMEOUT_MS", "100")

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.HeartbeatInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.ScanTimeout)
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv()
	_, err := Load(testLogger())
	assert.Error(t, err)

	os.Setenv("RED_SAFE_EDGE_ID", "RED-0A1B2C3D")
	_, err = Load(testLogger())
	assert.Error(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "edgecfg")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "state.json")
	s, err := LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, s.Ipcs)

	info := IpcInfo{IP: "192.168.1.42", Mac: "AA:BB:CC:DD:EE:FF", Name: "IPC"}
	require.NoError(t, s.SetIpc(info))

	reloaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, info, reloaded.Ipcs["192.168.1.42"])

	require.NoError(t, reloaded.DelIpc("192.168.1.42"))
	require.NoError(t, reloaded.DelIpc("192.168.1.42")) // idempotent

	final, err := LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, final.Ipcs)
}

func TestSetIpcRequiresIP(t *testing.T) {
	dir, err := ioutil.TempDir("", "edgecfg")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s, err := LoadState(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.Error(t, s.SetIpc(IpcInfo{Name: "IPC"}))
}
