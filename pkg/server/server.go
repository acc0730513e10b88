// Package server assembles the echo application.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/health"
	"github.com/Ramsey-B/iris/pkg/middleware"
	"github.com/Ramsey-B/iris/pkg/routes/catalog"
	"github.com/Ramsey-B/iris/pkg/routes/contacts"
	"github.com/Ramsey-B/iris/pkg/routes/duplicates"
	"github.com/Ramsey-B/iris/pkg/routes/matches"
)

// Handlers groups the route handlers mounted under /api/v1
type Handlers struct {
	Matches    *matches.Handler
	Catalog    *catalog.Handler
	Duplicates *duplicates.Handler
	Contacts   *contacts.Handler
	Health     *health.Checker
}

type Server struct {
	echo   *echo.Echo
	http   *http.Server
	logger ectologger.Logger
	errs   chan error
}

// New builds the application. A nil verifier leaves the API unauthenticated.
func New(cfg *config.Config, logger ectologger.Logger, handlers Handlers, verifier middleware.TokenVerifier) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	if handlers.Health != nil {
		handlers.Health.Register(api)
	}

	// everything but health and metrics sits behind authentication when it is enabled
	var protected []echo.MiddlewareFunc
	if verifier != nil {
		protected = append(protected, middleware.Authentication(logger, verifier))
	}
	secured := api.Group("", protected...)

	if handlers.Matches != nil {
		handlers.Matches.Register(secured.Group("/matches"))
	}
	if handlers.Duplicates != nil {
		handlers.Duplicates.Register(secured.Group("/duplicates"))
	}
	if handlers.Catalog != nil {
		handlers.Catalog.Register(secured)
	}
	if handlers.Contacts != nil {
		handlers.Contacts.Register(secured)
	}

	return &Server{
		echo: e,
		http: &http.Server{
			Handler:           e,
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
			ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		logger: logger,
		errs:   make(chan error, 1),
	}
}

// Handler exposes the echo instance, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves in the background. Errors after startup are reported on Errors.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithContext(ctx).WithError(err).Error("HTTP server stopped")
			s.errs <- err
		}
	}()
	s.logger.WithContext(ctx).WithField("addr", s.http.Addr).Info("HTTP server started")
	return nil
}

// Errors delivers a fatal serve error
func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
