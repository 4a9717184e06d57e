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
 * cl.inferd: fall inference service
 *
 * Wraps the fall classifier behind FallInferenceService so callers
 * never see the model internals, only a probability percentage.
 */

package main

import (
	"context"
	"flag"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"redsafe/base_def"
	"redsafe/cl_common/daemonutils"
	"redsafe/cloud_rpc"

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

const (
	pname = "cl.inferd"

	checkMark = `✔︎ `
)

// Cfg contains the environment variable-based configuration settings
type Cfg struct {
	GrpcPort       string `envcfg:"RED_SAFE_INFERD_GRPC_PORT"`
	PrometheusPort string `envcfg:"RED_SAFE_INFERD_PROMETHEUS_PORT"`
	ModelPath      string `envcfg:"RED_SAFE_INFERD_MODEL_PATH"`
}

var (
	log  *zap.Logger
	slog *zap.SugaredLogger
)

// inferServer answers InferFallProbability using the injected model.
type inferServer struct {
	model Predictor
}

func (s *inferServer) InferFallProbability(ctx context.Context,
	req *cloud_rpc.InferFallRequest) (*cloud_rpc.InferFallResponse, error) {

	raw := req.GetFeatures()
	if len(raw) != base_def.INFER_FEATURE_COUNT {
		return nil, status.Errorf(codes.InvalidArgument,
			"expected %d features, got %d",
			base_def.INFER_FEATURE_COUNT, len(raw))
	}

	var features [base_def.INFER_FEATURE_COUNT]float64
	copy(features[:], raw)

	p := math.Round(s.model.Predict(features)*1000) / 1000
	return &cloud_rpc.InferFallResponse{Probability: p}, nil
}

func processEnv(environ *Cfg) {
	if environ.GrpcPort == "" {
		environ.GrpcPort = base_def.INFERD_GRPC_PORT
	}
	if environ.PrometheusPort == "" {
		environ.PrometheusPort = base_def.INFERD_PROMETHEUS_PORT
	}
	slog.Infof(checkMark + "Environ looks good")
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
	slog.Infof(checkMark+"Prometheus launched on port %v", prometheusPort)
}

func makeGrpcServer(environ Cfg) *grpc.Server {
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

	log, slog = daemonutils.SetupLogs()
	flag.Parse()
	log, slog = daemonutils.ResetupLogs()
	defer log.Sync()
	grpc_zap.ReplaceGrpcLogger(log)

	if err := envcfg.Unmarshal(&environ); err != nil {
		slog.Fatalf("Environment Error: %s", err)
	}
	processEnv(&environ)
	slog.Infow(pname+" starting", "args", os.Args)

	prometheusInit(environ.PrometheusPort)

	model, err := loadModel(environ.ModelPath)
	if err != nil {
		slog.Fatalf("loading model: %v", err)
	}
	if environ.ModelPath != "" {
		slog.Infof(checkMark+"Model loaded from %s", environ.ModelPath)
	} else {
		slog.Infof(checkMark + "Using built-in model coefficients")
	}

	grpcServer := makeGrpcServer(environ)
	cloud_rpc.RegisterFallInferenceServiceServer(grpcServer,
		&inferServer{model: model})
	grpcConn, err := net.Listen("tcp", environ.GrpcPort)
	if err != nil {
		slog.Fatalf("grpc listen failed: %v", err)
	}
	go func() {
		if err := grpcServer.Serve(grpcConn); err != nil {
			slog.Warnf("grpc server exited: %v", err)
		}
	}()
	slog.Infof(checkMark+"gRPC listening on %s", environ.GrpcPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	slog.Infof("Signal (%v) received, shutting down", s)
	grpcServer.GracefulStop()
	slog.Infof("All servers shut down, goodbye.")
}
