// Package httpserver serves the health and readiness probes used by the
// hosting platform.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/m3rciful/stockbot/core/buildinfo"
	"github.com/m3rciful/stockbot/core/logger"
)

const component = "http"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is the /health response body.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// Ready is the /ready response body.
type Ready struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Server wraps an echo instance bound to one listen address.
type Server struct {
	e    *echo.Echo
	addr string
	db   Pinger
	now  func() time.Time
}

// New builds the server. db may be nil, in which case /ready only reports the process.
func New(addr string, db Pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{e: e, addr: addr, db: db, now: func() time.Time { return time.Now().UTC() }}
	e.GET("/health", s.health)
	e.GET("/ready", s.ready)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, Health{
		Status:    "ok",
		Timestamp: s.now(),
		Version:   buildinfo.Summary(),
	})
}

func (s *Server) ready(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, Ready{Status: "ok", Database: "skipped"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		logger.Warn(ctx, component, "ready.fail", slog.String("err", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, Ready{Status: "unavailable", Database: "down", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, Ready{Status: "ok", Database: "up"})
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) {
	go func() {
		err := s.e.Start(s.addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, component, "serve.fail",
				slog.String("listen", s.addr),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.Info(ctx, component, "serve.start", slog.String("listen", s.addr))
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.e.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info(ctx, component, "serve.stop", slog.String("listen", s.addr))
	return nil
}
