/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

/*
 * ap.edged: edge agent
 *
 * Onboards the edge with the cloud, then keeps the MQTT command plane
 * running: heartbeats out, commands in, replies out.  Camera scans run
 * in-process; network configuration queries go through ap.iptoold.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redsafe/ap_common/apscan"
	"redsafe/ap_common/aputil"
	"redsafe/ap_common/cmdplane"
	"redsafe/ap_common/edgecfg"
	"redsafe/base_def"
	"redsafe/common/grpcutils"
	"redsafe/edge_rpc"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomazk/envcfg"

	"go.uber.org/zap"
)

const (
	pname = "ap.edged"

	onboardAttempts = 3
	onboardBackoff  = 2 * time.Second
)

// daemonCfg holds the knobs that belong to the daemon rather than the
// command plane.
type daemonCfg struct {
	PrometheusPort string `envcfg:"RED_SAFE_EDGED_PROMETHEUS_PORT"`
}

var (
	stateFile = flag.String("state", "/var/spool/redsafe/edge_state.json",
		"path to the local camera state file")

	slog *zap.SugaredLogger
)

// onboard announces this edge to the cloud.  An already-registered
// conflict counts as success; the fleet keeps one row per serial.
func onboard(client *http.Client, serverURL, edgeID, version string) error {
	body, err := json.Marshal(map[string]string{
		"serial_number": edgeID,
		"version":       version,
	})
	if err != nil {
		return errors.Wrap(err, "encoding signup request")
	}

	resp, err := client.Post(serverURL+"/edge/signup", "application/json",
		bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "posting signup")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusConflict {
		return errors.Errorf("signup rejected: %s", resp.Status)
	}
	return nil
}

func onboardWithRetry(client *http.Client, cfg *edgecfg.EdgeConfig) error {
	var err error
	for i := 0; i < onboardAttempts; i++ {
		if i > 0 {
			time.Sleep(onboardBackoff)
		}
		if err = onboard(client, cfg.ServerURL, cfg.EdgeID,
			cfg.Version); err == nil {
			return nil
		}
		slog.Warnf("onboarding attempt %d failed: %v", i+1, err)
	}
	return err
}

func prometheusInit(prometheusPort string) {
	if len(prometheusPort) == 0 {
		slog.Warnf("Prometheus disabled")
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		slog.Fatalf("prometheus listener: %v",
			http.ListenAndServe(prometheusPort, nil))
	}()
	slog.Infof("prometheus launched on port %v", prometheusPort)
}

func main() {
	var denv daemonCfg

	flag.Parse()
	slog = aputil.NewLogger()
	defer slog.Sync()
	slog.Infof("starting %s", pname)

	if err := envcfg.Unmarshal(&denv); err != nil {
		slog.Fatalf("Environment Error: %s", err)
	}
	if denv.PrometheusPort == "" {
		denv.PrometheusPort = base_def.EDGED_PROMETHEUS_PORT
	}
	prometheusInit(denv.PrometheusPort)

	cfg, err := edgecfg.Load(slog)
	if err != nil {
		slog.Fatalf("configuration: %v", err)
	}

	state, err := edgecfg.LoadState(*stateFile)
	if err != nil {
		slog.Fatalf("loading state: %v", err)
	}

	httpClient := &http.Client{Timeout: base_def.EDGE_HTTP_TIMEOUT}
	if cfg.ServerURL != "" {
		if err = onboardWithRetry(httpClient, cfg); err != nil {
			slog.Fatalf("onboarding: %v", err)
		}
		slog.Infof("onboarded %s with %s", cfg.EdgeID, cfg.ServerURL)
	} else {
		slog.Warnf("RED_SAFE_SERVER_URL unset; skipping onboarding")
	}

	conn, err := grpcutils.NewClientConn(cfg.IPToolTarget, false, pname)
	if err != nil {
		slog.Fatalf("dialing iptool service: %v", err)
	}
	defer conn.Close()
	netClient := edge_rpc.NewNetworkServiceClient(conn)

	fetchIP := func() string {
		ctx, cancel := context.WithTimeout(context.Background(),
			base_def.EDGE_HTTP_TIMEOUT)
		defer cancel()
		resp, err := netClient.GetNetworkConfig(ctx,
			&edge_rpc.GetNetworkConfigRequest{InterfaceName: cfg.Interface})
		if err != nil {
			slog.Warnf("refreshing ip: %v", err)
			return ""
		}
		return resp.Ip
	}

	// One signup attempt per watchdog trip; a failure here means the
	// cloud is unreachable and the supervisor should restart us.
	onSilence := func() {
		slog.Warnf("no heartbeat ack in %s; re-onboarding",
			base_def.WATCHDOG_INTERVAL)
		if cfg.ServerURL == "" {
			return
		}
		if err := onboard(httpClient, cfg.ServerURL, cfg.EdgeID,
			cfg.Version); err != nil {
			slog.Errorf("re-onboarding failed: %v", err)
			os.Exit(1)
		}
	}

	cmdplane.MQTTLogToZap(slog.Desugar())
	plane := cmdplane.NewPlane(cfg, slog, fetchIP, onSilence)

	h := &handlers{
		cfg:    cfg,
		state:  state,
		engine: apscan.NewEngine(),
		net:    netClient,
	}
	plane.Handle(base_def.CMD_IPC_SCAN, h.ipcScan)
	plane.Handle(base_def.CMD_NETWORK_CONFIG, h.networkConfig)
	plane.Handle(base_def.CMD_SET_IPC_INFO, h.setIpcInfo)
	plane.Handle(base_def.CMD_DEL_IPC_INFO, h.delIpcInfo)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		slog.Infof("Signal (%v) received, stopping", s)
		cancel()
	}()

	if err = plane.Run(ctx); err != nil {
		slog.Errorf("command plane: %v", err)
	}
	slog.Infof("%s stopped", pname)
}
