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
 * ap.scand: IP camera scan facade
 *
 * Exposes the WS-Discovery scan engine to LAN peers as IPCScanService.
 * The engine serialises concurrent scans internally; callers just get
 * the serialized device list.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"redsafe/ap_common/apscan"
	"redsafe/ap_common/aputil"
	"redsafe/base_def"
	"redsafe/edge_rpc"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomazk/envcfg"

	"go.uber.org/zap"

	"github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	"github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
)

const pname = "ap.scand"

// Cfg contains the environment variable-based configuration settings
type Cfg struct {
	GrpcPort       string `envcfg:"RED_SAFE_SCAND_GRPC_PORT"`
	FleetGrpcPort  string `envcfg:"RED_SAFE_GRPC_PORT"`
	PrometheusPort string `envcfg:"RED_SAFE_SCAND_PROMETHEUS_PORT"`
	ScanTimeoutMs  string `envcfg:"RED_SAFE_IPCSCAN_TIMEOUT_MS"`
}

var slog *zap.SugaredLogger

var metrics = struct {
	scans     prometheus.Counter
	scanFails prometheus.Counter
}{
	scans: promauto.NewCounter(prometheus.CounterOpts{
		Name: "scand_scans",
		Help: "Discovery scans run",
	}),
	scanFails: promauto.NewCounter(prometheus.CounterOpts{
		Name: "scand_scan_failures",
		Help: "Discovery scans that failed outright",
	}),
}

// scanner is the subset of the scan engine the facade needs.
type scanner interface {
	Scan(timeout time.Duration) ([]apscan.DeviceInfo, error)
}

// scanServer answers IPCScanService.Scan.
type scanServer struct {
	engine  scanner
	timeout time.Duration
}

// Scan runs one discovery pass.  The result is a compact JSON array, or
// the empty string when nothing answered or the scan itself failed;
// per-device parse problems are already absorbed by the engine.
func (s *scanServer) Scan(ctx context.Context,
	req *edge_rpc.ScanRequest) (*edge_rpc.ScanResponse, error) {

	metrics.scans.Inc()
	devices, err := s.engine.Scan(s.timeout)
	if err != nil {
		metrics.scanFails.Inc()
		slog.Errorf("scan failed: %v", err)
		return &edge_rpc.ScanResponse{Result: ""}, nil
	}
	if len(devices) == 0 {
		return &edge_rpc.ScanResponse{Result: ""}, nil
	}

	b, err := json.Marshal(devices)
	if err != nil {
		slog.Errorf("marshaling scan result: %v", err)
		return &edge_rpc.ScanResponse{Result: ""}, nil
	}
	return &edge_rpc.ScanResponse{Result: string(b)}, nil
}

func scanTimeout(raw string) time.Duration {
	if raw == "" {
		return base_def.SCAN_TIMEOUT_DEFAULT
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warnf("bad RED_SAFE_IPCSCAN_TIMEOUT_MS %q; using default %s",
			raw, base_def.SCAN_TIMEOUT_DEFAULT)
		return base_def.SCAN_TIMEOUT_DEFAULT
	}
	d := time.Duration(ms) * time.Millisecond
	if d < base_def.SCAN_TIMEOUT_MIN {
		slog.Warnf("scan timeout %s below minimum; clamping to %s",
			d, base_def.SCAN_TIMEOUT_MIN)
		return base_def.SCAN_TIMEOUT_MIN
	}
	return d
}

// grpcListenAddr resolves the facade's listen address.  The
// daemon-specific port wins over the fleet-wide RED_SAFE_GRPC_PORT,
// which arrives as a bare port number.
func grpcListenAddr(specific, fleet string) string {
	if specific != "" {
		return specific
	}
	if fleet != "" {
		if _, err := strconv.Atoi(fleet); err == nil {
			return ":" + fleet
		}
		slog.Warnf("bad RED_SAFE_GRPC_PORT %q; using default", fleet)
	}
	return fmt.Sprintf(":%d", base_def.SCAND_GRPC_PORT)
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

func makeGrpcServer(environ Cfg, log *zap.Logger) *grpc.Server {
	streamFuncs := []grpc.StreamServerInterceptor{
		grpc_ctxtags.StreamServerInterceptor(),
		grpc_zap.StreamServerInterceptor(log),
	}
	unaryFuncs := []grpc.UnaryServerInterceptor{
		grpc_ctxtags.UnaryServerInterceptor(),
		grpc_zap.UnaryServerInterceptor(log),
	}
	if len(environ.PrometheusPort) != 0 {
		streamFuncs = append(streamFuncs,
			grpc_prometheus.StreamServerInterceptor)
		unaryFuncs = append(unaryFuncs,
			grpc_prometheus.UnaryServerInterceptor)
	}

	grpcServer := grpc.NewServer(
		grpc_middleware.WithStreamServerChain(streamFuncs...),
		grpc_middleware.WithUnaryServerChain(unaryFuncs...),
	)
	if len(environ.PrometheusPort) != 0 {
		grpc_prometheus.Register(grpcServer)
	}
	return grpcServer
}

func main() {
	var environ Cfg

	flag.Parse()
	slog = aputil.NewLogger()
	defer slog.Sync()
	slog.Infof("starting %s", pname)

	if err := envcfg.Unmarshal(&environ); err != nil {
		slog.Fatalf("Environment Error: %s", err)
	}
	environ.GrpcPort = grpcListenAddr(environ.GrpcPort, environ.FleetGrpcPort)
	if environ.PrometheusPort == "" {
		environ.PrometheusPort = base_def.SCAND_PROMETHEUS_PORT
	}
	prometheusInit(environ.PrometheusPort)

	srv := &scanServer{
		engine:  apscan.NewEngine(),
		timeout: scanTimeout(environ.ScanTimeoutMs),
	}

	grpcServer := makeGrpcServer(environ, slog.Desugar())
	edge_rpc.RegisterIPCScanServiceServer(grpcServer, srv)
	grpcConn, err := net.Listen("tcp", environ.GrpcPort)
	if err != nil {
		slog.Fatalf("grpc listen failed: %v", err)
	}
	go func() {
		if err := grpcServer.Serve(grpcConn); err != nil {
			slog.Warnf("grpc server exited: %v", err)
		}
	}()
	slog.Infof("gRPC listening on %s", environ.GrpcPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	slog.Infof("Signal (%v) received, stopping", s)
	grpcServer.GracefulStop()
}
