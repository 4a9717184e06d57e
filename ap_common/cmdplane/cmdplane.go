/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package cmdplane maintains the edge agent's MQTT session: it consumes
// commands from <edge_id>/cmd, publishes replies to <edge_id>/data and
// heartbeats to <edge_id>/status, and trips a silence watchdog when the
// cloud stops acknowledging heartbeats.
package cmdplane

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"redsafe/ap_common/edgecfg"
	"redsafe/base_def"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handler executes one command and builds its reply.  Long-running
// handlers are invoked off the MQTT receive path, so they may block.
type Handler func(ctx context.Context, cmd *Command) *Reply

const maxWorkers = 4

// Plane is one edge agent's command-plane session.
type Plane struct {
	cfg  *edgecfg.EdgeConfig
	slog *zap.SugaredLogger

	handlers  map[string]Handler
	fetchIP   func() string
	onSilence func()

	watchdogMu sync.Mutex
	watchdog   *Watchdog

	workers chan struct{}
	dataMu  sync.Mutex

	wg sync.WaitGroup
}

// NewPlane builds a command plane for cfg.  fetchIP supplies the edge's
// best-known IP for heartbeats; onSilence runs when 60 s pass without a
// heartbeat acknowledgement from the cloud.
func NewPlane(cfg *edgecfg.EdgeConfig, slog *zap.SugaredLogger,
	fetchIP func() string, onSilence func()) *Plane {

	p := &Plane{
		cfg:       cfg,
		slog:      slog,
		handlers:  make(map[string]Handler),
		fetchIP:   fetchIP,
		onSilence: onSilence,
		workers:   make(chan struct{}, maxWorkers),
	}
	p.handlers[base_def.CMD_HEARTBEAT_ACK] = p.heartbeatAck
	return p
}

// Handle registers the handler for one command code.
func (p *Plane) Handle(code string, h Handler) {
	p.handlers[code] = h
}

func (p *Plane) cmdTopic() string {
	return p.cfg.EdgeID + "/" + base_def.TOPIC_COMMAND
}

func (p *Plane) dataTopic() string {
	return p.cfg.EdgeID + "/" + base_def.TOPIC_DATA
}

func (p *Plane) statusTopic() string {
	return p.cfg.EdgeID + "/" + base_def.TOPIC_HEARTBEAT
}

// heartbeatAck is the built-in handler for code 100.
func (p *Plane) heartbeatAck(_ context.Context, cmd *Command) *Reply {
	p.resetWatchdog()
	return OkReply(cmd, map[string]string{"message": "heartbeat_ack"})
}

func (p *Plane) resetWatchdog() {
	p.watchdogMu.Lock()
	defer p.watchdogMu.Unlock()
	if p.watchdog != nil {
		p.watchdog.Reset()
	}
}

// Run drives the session until ctx is cancelled, reconnecting with
// capped exponential backoff on transport errors.
func (p *Plane) Run(ctx context.Context) error {
	p.watchdogMu.Lock()
	p.watchdog = NewWatchdog(base_def.WATCHDOG_INTERVAL, p.onSilence)
	p.watchdogMu.Unlock()
	defer func() {
		p.watchdogMu.Lock()
		p.watchdog.Stop()
		p.watchdogMu.Unlock()
	}()

	backoff := base_def.RECONNECT_BACKOFF_MIN
	for {
		subscribed, err := p.session(ctx)
		if ctx.Err() != nil {
			p.wg.Wait()
			return nil
		}
		if subscribed {
			backoff = base_def.RECONNECT_BACKOFF_MIN
		}

		p.slog.Warnf("mqtt session ended: %v; reconnecting in %s",
			err, backoff)
		select {
		case <-ctx.Done():
			p.wg.Wait()
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > base_def.RECONNECT_BACKOFF_MAX {
			backoff = base_def.RECONNECT_BACKOFF_MAX
		}
	}
}

// session runs one connect/subscribe/serve cycle.  It returns whether
// the subscription was established, so Run can reset its backoff.
func (p *Plane) session(ctx context.Context) (bool, error) {
	lost := make(chan error, 1)

	opts := mqtt.NewClientOptions().AddBroker(p.cfg.BrokerURL())
	opts.SetClientID("Client-" + p.cfg.EdgeID)
	opts.SetKeepAlive(base_def.MQTT_KEEPALIVE)
	opts.SetPingTimeout(base_def.MQTT_KEEPALIVE / 2)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	if p.cfg.MQTTUsername != "" {
		opts.SetUsername(p.cfg.MQTTUsername)
		opts.SetPassword(p.cfg.MQTTPassword)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})

	client := mqtt.NewClient(opts)
	if t := client.Connect(); t.Wait() && t.Error() != nil {
		return false, errors.Wrap(t.Error(), "mqtt connect")
	}

	topic := p.cmdTopic()
	st := client.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
		p.consume(ctx, client, m.Payload())
	})
	if st.Wait() && st.Error() != nil {
		client.Disconnect(250)
		return false, errors.Wrapf(st.Error(), "subscribing %s", topic)
	}
	if sub, ok := st.(*mqtt.SubscribeToken); ok {
		if qos, ok := sub.Result()[topic]; ok && qos == 0x80 {
			client.Disconnect(250)
			return false, errors.Errorf("broker rejected subscription %s",
				topic)
		}
	}
	p.slog.Infof("subscribed %s", topic)

	hbDone := make(chan struct{})
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.heartbeatLoop(client, hbDone)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-lost:
	}

	close(hbDone)
	client.Disconnect(250)
	return true, err
}

// heartbeatLoop publishes to <edge_id>/status every heartbeat interval
// until done closes.
func (p *Plane) heartbeatLoop(client mqtt.Client, done <-chan struct{}) {
	hb := &heartbeater{
		edgeID:  p.cfg.EdgeID,
		version: p.cfg.Version,
		fetchIP: p.fetchIP,
		ip:      p.cfg.IP,
		ipAt:    time.Now(),
	}

	topic := p.statusTopic()
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			t := client.Publish(topic, 1, false, hb.payload(now))
			if t.Wait() && t.Error() != nil {
				p.slog.Warnf("heartbeat publish failed: %v", t.Error())
			}
		}
	}
}

// consume parses one message off <edge_id>/cmd and hands it to a
// worker.  Malformed envelopes are dropped with a warning; there is no
// trace_id to reply to.
func (p *Plane) consume(ctx context.Context, client mqtt.Client, raw []byte) {
	cmd, err := ParseCommand(raw)
	if err != nil {
		p.slog.Warnf("dropping command: %v", err)
		return
	}

	select {
	case p.workers <- struct{}{}:
	case <-ctx.Done():
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.workers }()
		p.publishData(client, p.dispatch(ctx, cmd))
	}()
}

// dispatch routes cmd to its handler, falling back to the unsupported
// reply for unknown codes.
func (p *Plane) dispatch(ctx context.Context, cmd *Command) *Reply {
	h, ok := p.handlers[cmd.Code]
	if !ok {
		p.slog.Warnf("unsupported command code %q (trace %s)",
			cmd.Code, cmd.TraceID)
		return ErrorReply(cmd, "unsupported command")
	}
	return h(ctx, cmd)
}

// publishData serialises reply publication on <edge_id>/data.
func (p *Plane) publishData(client mqtt.Client, reply *Reply) {
	b, err := json.Marshal(reply)
	if err != nil {
		p.slog.Errorf("marshaling reply (trace %s): %v", reply.TraceID, err)
		return
	}

	p.dataMu.Lock()
	defer p.dataMu.Unlock()
	t := client.Publish(p.dataTopic(), 1, false, b)
	if t.Wait() && t.Error() != nil {
		p.slog.Warnf("reply publish failed (trace %s): %v",
			reply.TraceID, t.Error())
	}
}

// MQTTLogToZap routes the paho library's internal logging through zap.
func MQTTLogToZap(logger *zap.Logger) {
	mqtt.DEBUG = zap.NewStdLog(logger.Named("mqtt-debug"))
	mqtt.WARN = zap.NewStdLog(logger.Named("mqtt-warn"))
	mqtt.ERROR = zap.NewStdLog(logger.Named("mqtt-error"))
	mqtt.CRITICAL = zap.NewStdLog(logger.Named("mqtt-critical"))
}
