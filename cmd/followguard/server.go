package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bluesky-social/followguard/atproto/syntax"
	"github.com/bluesky-social/followguard/ledger"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

const maxRecentLimit = 500

type AdminConfig struct {
	Ledger ledger.Ledger
	Bind   string
	Logger *slog.Logger
	// defaults to the global prometheus registry
	Registerer prometheus.Registerer
}

// Small HTTP server for operators: health, metrics, and read-only ledger queries.
type AdminServer struct {
	echo   *echo.Echo
	httpd  *http.Server
	ledger ledger.Ledger
	logger *slog.Logger
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewAdminServer(config AdminConfig) *AdminServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := config.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	e := echo.New()

	// httpd
	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)

	srv := &AdminServer{
		echo:   e,
		ledger: config.Ledger,
		logger: logger.With("component", "admin"),
	}
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           config.Bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.HideBanner = true
	e.Use(slogecho.New(srv.logger))
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("followguard"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "followguard_admin",
		Registerer: reg,
	}))

	e.GET("/_health", srv.HandleHealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttpHandler(reg)))
	e.GET("/checks/recent", srv.HandleRecentChecks)
	e.GET("/checks/:did", srv.HandleGetCheck)
	return srv
}

func (srv *AdminServer) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

// Blocks until the server is shut down. Returns nil after a clean shutdown.
func (srv *AdminServer) Run() error {
	srv.logger.Info("starting admin server", "bind", srv.httpd.Addr)
	if err := srv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (srv *AdminServer) Shutdown() error {
	srv.logger.Info("shutting down admin server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.httpd.Shutdown(ctx)
}

// GET /_health
func (srv *AdminServer) HandleHealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := srv.ledger.RecentChecks(ctx, 1); err != nil {
		srv.logger.Error("health check failed", "err", err)
		return c.JSON(http.StatusServiceUnavailable, GenericStatus{Status: "error", Daemon: "followguard", Message: "ledger unavailable"})
	}
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "followguard"})
}

// GET /checks/recent?limit=N
func (srv *AdminServer) HandleRecentChecks(c echo.Context) error {
	limit := ledger.DefaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			return c.JSON(http.StatusBadRequest, GenericError{
				Error:   "BadRequest",
				Message: "limit must be an integer between 1 and 500",
			})
		}
		limit = n
	}

	recs, err := srv.ledger.RecentChecks(c.Request().Context(), limit)
	if err != nil {
		srv.logger.Error("failed to list recent checks", "err", err)
		return c.JSON(http.StatusInternalServerError, GenericError{
			Error:   "InternalServerError",
			Message: "ledger query failed",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"checks": recs,
	})
}

// GET /checks/:did
func (srv *AdminServer) HandleGetCheck(c echo.Context) error {
	did, err := syntax.ParseDID(c.Param("did"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "InvalidDidSyntax",
			Message: err.Error(),
		})
	}

	rec, err := srv.ledger.GetCheck(c.Request().Context(), did)
	if errors.Is(err, ledger.ErrNotFound) {
		return c.JSON(http.StatusNotFound, GenericError{
			Error:   "NotFound",
			Message: "account has not been checked",
		})
	} else if err != nil {
		srv.logger.Error("failed to fetch check record", "did", did, "err", err)
		return c.JSON(http.StatusInternalServerError, GenericError{
			Error:   "InternalServerError",
			Message: "ledger query failed",
		})
	}
	return c.JSON(http.StatusOK, rec)
}
