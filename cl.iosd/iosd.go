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
 * cl.iosd: edge and iOS device registration service
 *
 * Serves the onboarding endpoints (/edge/signup, /ios/signup) over
 * loopback HTTP.  Access tokens are never decoded locally; cl.userd's
 * UserAuthService does that over gRPC.
 */

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redsafe/base_def"
	"redsafe/cl_common/daemonutils"
	"redsafe/cl_common/echozap"
	"redsafe/cl_common/pgutils"
	"redsafe/cl_common/restapi"
	"redsafe/cl_common/zapgommon"
	"redsafe/cloud_models/redsafedb"
	"redsafe/cloud_rpc"
	"redsafe/common/grpcutils"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomazk/envcfg"

	"go.uber.org/zap"
)

const (
	pname = "cl.iosd"

	checkMark = `✔︎ `
)

// Cfg contains the environment variable-based configuration settings
type Cfg struct {
	HTTPListen         string `envcfg:"RED_SAFE_IOSD_HTTP_LISTEN"`
	PrometheusPort     string `envcfg:"RED_SAFE_IOSD_PROMETHEUS_PORT"`
	PostgresConnection string `envcfg:"RED_SAFE_IOSD_POSTGRES_CONNECTION"`
	UserdConnection    string `envcfg:"RED_SAFE_IOSD_USERD_CONNECTION"`
	EnableTLS          bool   `envcfg:"RED_SAFE_IOSD_USERD_TLS"`
	Developer          bool   `envcfg:"RED_SAFE_IOSD_DEVMODE"`
}

var (
	log  *zap.Logger
	slog *zap.SugaredLogger
)

func processEnv(environ *Cfg) {
	if environ.PostgresConnection == "" {
		slog.Fatalf("RED_SAFE_IOSD_POSTGRES_CONNECTION must be set")
	}
	if environ.HTTPListen == "" {
		environ.HTTPListen = "127.0.0.1:8081"
	}
	if environ.PrometheusPort == "" {
		environ.PrometheusPort = base_def.IOSD_PROMETHEUS_PORT
	}
	if environ.UserdConnection == "" {
		environ.UserdConnection = "127.0.0.1" + base_def.USERD_GRPC_PORT
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

	r.POST("/edge/signup", restapi.Wrap(api.edgeSignup))
	r.POST("/ios/signup", restapi.Wrap(api.iosSignup))
	return r
}

func main() {
	var environ Cfg

	log, slog = daemonutils.SetupLogs()
	flag.Parse()
	log, slog = daemonutils.ResetupLogs()
	defer log.Sync()

	if err := envcfg.Unmarshal(&environ); err != nil {
		slog.Fatalf("Environment Error: %s", err)
	}
	processEnv(&environ)
	slog.Infow(pname+" starting", "args", os.Args)

	prometheusInit(environ.PrometheusPort)
	db := makeDB(environ.PostgresConnection)
	defer db.Close()

	conn, err := grpcutils.NewClientConn(environ.UserdConnection,
		environ.EnableTLS, pname)
	if err != nil {
		slog.Fatalf("dialing user service: %v", err)
	}
	defer conn.Close()
	slog.Infof(checkMark+"Dialed user service at %s", environ.UserdConnection)

	api := &apiHandler{
		db:   db,
		auth: cloud_rpc.NewUserAuthServiceClient(conn),
	}
	router := mkRouter(environ, api)
	httpSrv := &http.Server{Addr: environ.HTTPListen}
	go func() {
		if err := router.StartServer(httpSrv); err != nil {
			router.Logger.Info("shutting down HTTP service")
		}
	}()
	slog.Infof(checkMark+"HTTP listening on %s", environ.HTTPListen)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	slog.Infof("Signal (%v) received, shutting down", s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := router.Shutdown(ctx); err != nil {
		slog.Errorf("HTTP shutdown failed: %v", err)
	}
	slog.Infof("All servers shut down, goodbye.")
}
