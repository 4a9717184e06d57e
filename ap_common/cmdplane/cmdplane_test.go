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
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"redsafe/ap_common/edgecfg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPlane(fetchIP func() string) *Plane {
	cfg := &edgecfg.EdgeConfig{
		EdgeID:            "edge-1",
		Version:           "1.2.3",
		MQTTBroker:        "broker.example.com",
		MQTTPort:          443,
		HeartbeatInterval: time.Second,
	}
	if fetchIP == nil {
		fetchIP = func() string { return "" }
	}
	return NewPlane(cfg, zap.NewNop().Sugar(), fetchIP, func() {})
}

func TestParseCommandStringCode(t *testing.T) {
	cmd, err := ParseCommand([]byte(
		`{"trace_id":"t-1","code":"101","payload":{"x":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "t-1", cmd.TraceID)
	assert.Equal(t, "101", cmd.Code)
	assert.JSONEq(t, `{"x":1}`, string(cmd.Payload))
}

func TestParseCommandIntegerCode(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"trace_id":"t-2","code":102}`))
	require.NoError(t, err)
	assert.Equal(t, "102", cmd.Code)
}

func TestParseCommandRejectsBadEnvelopes(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing trace_id": `{"code":"100"}`,
		"numeric trace_id": `{"trace_id":7,"code":"100"}`,
		"missing code":     `{"trace_id":"t"}`,
		"bool code":        `{"trace_id":"t","code":true}`,
	}
	for name, payload := range cases {
		_, err := ParseCommand([]byte(payload))
		assert.Error(t, err, name)
	}
}

func TestRepliesEchoTraceAndCode(t *testing.T) {
	cmd := &Command{TraceID: "t-3", Code: "999"}

	ok := OkReply(cmd, map[string]string{"message": "done"})
	assert.Equal(t, "t-3", ok.TraceID)
	assert.Equal(t, "999", ok.Code)
	assert.Equal(t, "ok", ok.Status)

	bad := ErrorReply(cmd, "unsupported command")
	assert.Equal(t, "error", bad.Status)
	b, err := json.Marshal(bad)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"error_message":"unsupported command"`)
}

func TestDispatchRoutesToHandler(t *testing.T) {
	p := testPlane(nil)
	p.Handle("101", func(_ context.Context, cmd *Command) *Reply {
		return OkReply(cmd, []string{"dev"})
	})

	reply := p.dispatch(context.Background(),
		&Command{TraceID: "t", Code: "101"})
	assert.Equal(t, "ok", reply.Status)
}

func TestDispatchUnsupportedCode(t *testing.T) {
	p := testPlane(nil)
	reply := p.dispatch(context.Background(),
		&Command{TraceID: "t", Code: "555"})
	require.Equal(t, "error", reply.Status)
	assert.Equal(t, "555", reply.Code)
	result, ok := reply.Result.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "unsupported command", result["error_message"])
}

func TestBuiltinHeartbeatAck(t *testing.T) {
	p := testPlane(nil)
	reply := p.dispatch(context.Background(),
		&Command{TraceID: "t", Code: "100"})
	require.Equal(t, "ok", reply.Status)
	result, ok := reply.Result.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "heartbeat_ack", result["message"])
}

func TestHeartbeaterSequenceAndTimestamp(t *testing.T) {
	h := &heartbeater{
		edgeID:  "edge-1",
		version: "1.2.3",
		fetchIP: func() string { return "192.168.1.50" },
	}

	now := time.Date(2020, 6, 1, 4, 30, 15, 250e6, time.UTC)
	for want := uint64(0); want < 3; want++ {
		var hb heartbeat
		require.NoError(t, json.Unmarshal(h.payload(now), &hb))
		assert.Equal(t, want, hb.Sequence)
		assert.Equal(t, "online", hb.Status)
		assert.Equal(t, "edge-1", hb.EdgeID)
		assert.Equal(t, "2020-06-01T12:30:15.250+08:00", hb.HeartbeatAt)
		assert.Equal(t, "192.168.1.50", hb.IP)
	}
}

func TestHeartbeaterIPRefresh(t *testing.T) {
	var calls int32
	h := &heartbeater{
		edgeID: "edge-1",
		fetchIP: func() string {
			atomic.AddInt32(&calls, 1)
			return "10.0.0.9"
		},
	}

	start := time.Now()
	h.payload(start)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Known IP, within the refresh window: no new lookup.
	h.payload(start.Add(time.Second))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Past the refresh window.
	h.payload(start.Add(ipRefreshInterval + time.Second))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHeartbeaterRetriesUnknownIP(t *testing.T) {
	var calls int32
	h := &heartbeater{
		edgeID: "edge-1",
		fetchIP: func() string {
			atomic.AddInt32(&calls, 1)
			return ""
		},
	}

	now := time.Now()
	var hb heartbeat
	require.NoError(t, json.Unmarshal(h.payload(now), &hb))
	assert.Equal(t, "", hb.IP)
	h.payload(now.Add(time.Second))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWatchdogFiresOnSilence(t *testing.T) {
	fired := make(chan struct{})
	w := NewWatchdog(20*time.Millisecond, func() { close(fired) })
	defer w.Stop()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("watchdog never fired")
	}
}

func TestWatchdogResetDefersExpiry(t *testing.T) {
	var fired int32
	w := NewWatchdog(60*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	defer w.Stop()

	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		w.Reset()
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestWatchdogStopPreventsExpiry(t *testing.T) {
	var fired int32
	w := NewWatchdog(20*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	w.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
