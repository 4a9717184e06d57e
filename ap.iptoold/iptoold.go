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
 * ap.iptoold: network configuration facade
 *
 * Exposes the edge's effective interface configuration to LAN peers and
 * the edge agent as NetworkService.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"redsafe/ap_common/aputil"
	"redsafe/ap_common/iptool"
	"redsafe/base_def"
	"redsafe/edge_rpc"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomazk/envcfg"

	"go.uber.org/zap"

	"github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	"github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const pname = "ap.iptoold"

// Cfg contains the environment variable-based configuration settings
type Cfg struct {
	GrpcPort       string `envcfg:"RED_SAFE_IPTOOLD_GRPC_PORT"`
	PrometheusPort string `envcfg:"RED_SAFE_IPTOOLD_PROMETHEUS_PORT"`
}

var slog *zap.SugaredLogger

// networkServer answers NetworkService.  The iptool entry points are
// indirected so tests can run without touching host interfaces.
type networkServer struct {
	get    func(name string) (*iptool.Config, error)
	update func(cfg *iptool.Config) error
}

func newNetworkServer() *networkServer {
	return &networkServer{get: iptool.Get, update: iptool.Update}
}

// statusFromErr maps iptool sentinels onto gRPC status codes.
func statusFromErr(err error) error {
	switch errors.Cause(err) {
	case iptool.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case iptool.ErrUnsupported:
		return status.Error(codes.Unimplemented, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *networkServer) GetNetworkConfig(ctx context.Context,
	req *edge_rpc.GetNetworkConfigRequest) (*edge_rpc.NetworkConfig, error) {

	cfg, err := s.get(req.GetInterfaceName())
	if err != nil {
		slog.Warnf("get %q: %v", req.GetInterfaceName(), err)
		return nil, statusFromErr(err)
	}

	return &edge_rpc.NetworkConfig{
		InterfaceName: cfg.Interface,
		Ip:            cfg.IP,
		Mac:           cfg.Mac,
		Gateway:       cfg.Gateway,
		Subnet:        cfg.Subnet,
		Dns:           cfg.DNS,
		Mode:          cfg.Mode,
	}, nil
}

func (s *networkServer) UpdateNetworkConfig(ctx context.Context,
	req *edge_rpc.NetworkConfig) (*edge_rpc.UpdateNetworkConfigResponse, error) {

	err := s.update(&iptool.Config{
		Interface: req.GetInterfaceName(),
		IP:        req.GetIp(),
		Mac:       req.GetMac(),
		Gateway:   req.GetGateway(),
		Subnet:    req.GetSubnet(),
		DNS:       req.GetDns(),
		Mode:      req.GetMode(),
	})
	if errors.Cause(err) == iptool.ErrUnsupported {
		return nil, statusFromErr(err)
	}
	if err != nil {
		slog.Warnf("update %q: %v", req.GetInterfaceName(), err)
		return &edge_rpc.UpdateNetworkConfigResponse{
			Success: false,
			Message: err.Error(),
		}, nil
	}
	return &edge_rpc.UpdateNetworkConfigResponse{
		Success: true,
		Message: "updated",
	}, nil
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
	if environ.GrpcPort == "" {
		environ.GrpcPort = fmt.Sprintf(":%d", base_def.IPTOOLD_GRPC_PORT)
	}
	if environ.PrometheusPort == "" {
		environ.PrometheusPort = base_def.IPTOOLD_PROMETHEUS_PORT
	}
	prometheusInit(environ.PrometheusPort)

	grpcServer := makeGrpcServer(environ, slog.Desugar())
	edge_rpc.RegisterNetworkServiceServer(grpcServer, newNetworkServer())
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
