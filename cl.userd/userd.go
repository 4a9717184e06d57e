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
 * cl.userd: user account, session and binding service
 *
 * Serves the /user, /auth and /ios binding endpoints over loopback
 * HTTP (a TLS-terminating proxy fronts it) and the UserAuthService
 * gRPC endpoint for the other cloud daemons.  The token signing secret
 * never leaves this process.
 */

package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"redsafe/base_def"
	"redsafe/cl_common/auth/tokens"
	"redsafe/cl_common/daemonutils"
	"redsafe/cl_common/echozap"
	"redsafe/cl_common/pgutils"
	"redsafe/cl_common/restapi"
	"redsafe/cl_common/zapgommon"
	"redsafe/cloud_models/redsafedb"
	"redsafe/cloud_rpc"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
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

const (
	pname = "cl.userd"

	checkMark = `✔︎ `
)

// Cfg contains the environment variable-based configuration settings
type Cfg struct {
	HTTPListen         string `envcfg:"RED_SAFE_USERD_HTTP_LISTEN"`
	GrpcPort           string `envcfg:"RED_SAFE_USERD_GRPC_PORT"`
	PrometheusPort     string `envcfg:"RED_SAFE_USERD_PROMETHEUS_PORT"`
	PostgresConnection string `envcfg:"RED_SAFE_USERD_POSTGRES_CONNECTION"`
	SecretPath         string `envcfg:"RED_SAFE_USERD_SECRET_PATH"`
	Developer          bool   `envcfg:"RED_SAFE_USERD_DEVMODE"`
}

var (
	log  *zap.Logger
	slog *zap.SugaredLogger
)

var metrics = struct {
	tokensIssued prometheus.Counter
	authFailures prometheus.Counter
}{
	tokensIssued: promauto.NewCounter(prometheus.CounterOpts{
		Name: "userd_access_tokens_issued",
		Help: "Access tokens issued (signin and refresh)",
	}),
	authFailures: promauto.NewCounter(prometheus.CounterOpts{
		Name: "userd_auth_failures",
		Help: "Rejected signin and token validation attempts",
	}),
}

// processEnv checks (and in some cases modifies) the environment-derived
// configuration.
func processEnv(environ *Cfg) {
	if environ.PostgresConnection == "" {
		slog.Fatalf("RED_SAFE_USERD_POSTGRES_CONNECTION must be set")
	}
	if environ.HTTPListen == "" {
		environ.HTTPListen = "127.0.0.1:8080"
	}
	if environ.GrpcPort == "" {
		environ.GrpcPort = base_def.USERD_GRPC_PORT
	}
	if environ.PrometheusPort == "" {
		environ.PrometheusPort = base_def.USERD_PROMETHEUS_PORT
	}
	if environ.SecretPath == "" {
		environ.SecretPath = filepath.Join(daemonutils.RootDir(),
			"etc", "token_secret")
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

// makeDB handles connection setup to the fleet database
func makeDB(postgresURI string) redsafedb.DataStore {
	db, err := redsafedb.Connect(postgresURI)
	if err != nil {
		slog.Fatalf("failed to connect to DB: %v", err)
	}
	slog.Infof(checkMark+"Connected to DB at %s",
		pgutils.CensorPassword(postgresURI))
	if err = db.Ping(); err != nil {
		slog.Fatalf("failed to ping DB: %s", err)
	}
	slog.Infof(checkMark + "Pinged DB")
	return db
}

func mkRouter(environ Cfg, api *apiHandler) *echo.Echo {
	r := echo.New()
	r.Debug = environ.Developer
	r.HideBanner = true
	r.Logger = zapgommon.ZapToGommonLog(log)
	r.Use(echozap.Logger(log))
	r.Use(middleware.Recover())
	r.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if he, ok := err.(*echo.HTTPError); ok &&
			(he.Code == http.StatusNotFound ||
				he.Code == http.StatusMethodNotAllowed) {
			restapi.NotFoundHandler(c)
			return
		}
		c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error_code": restapi.CodeInternalServerError,
		})
	}

	r.POST("/user/signup", restapi.Wrap(api.userSignup))
	r.POST("/user/signin", restapi.Wrap(api.userSignin))
	r.GET("/user/all", restapi.Wrap(api.userAll))
	r.POST("/auth/refresh", restapi.Wrap(api.authRefresh))
	r.POST("/auth/out", restapi.Wrap(api.authOut))
	r.POST("/ios/bind", restapi.Wrap(api.iosBind))
	r.POST("/ios/unbind", restapi.Wrap(api.iosUnbind))
	return r
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
	db := makeDB(environ.PostgresConnection)
	defer db.Close()

	secret, err := tokens.LoadOrCreateSecret(environ.SecretPath)
	if err != nil {
		slog.Fatalf("token secret: %v", err)
	}
	issuer, err := tokens.NewIssuer(secret)
	if err != nil {
		slog.Fatalf("token issuer: %v", err)
	}
	slog.Infof(checkMark+"Token secret ready at %s", environ.SecretPath)

	api := &apiHandler{db: db, issuer: issuer, now: time.Now}
	router := mkRouter(environ, api)
	httpSrv := &http.Server{Addr: environ.HTTPListen}
	go func() {
		if err := router.StartServer(httpSrv); err != nil {
			router.Logger.Info("shutting down HTTP service")
		}
	}()
	slog.Infof(checkMark+"HTTP listening on %s", environ.HTTPListen)

	grpcServer := makeGrpcServer(environ)
	cloud_rpc.RegisterUserAuthServiceServer(grpcServer,
		&authServer{issuer: issuer})
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := router.Shutdown(ctx); err != nil {
		slog.Errorf("HTTP shutdown failed: %v", err)
	}
	grpcServer.GracefulStop()
	slog.Infof("All servers shut down, goodbye.")
}
