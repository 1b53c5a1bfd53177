// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

// Package httpapi exposes registration and login over a JSON HTTP API.
//
// The API is a thin adapter: it deserializes request bodies, routes to the
// auth service, and maps each taxonomy error onto an HTTP status class
// (validation failure 400, conflict 409, invalid credentials 401, anything
// unrecognized 500 with a generic body).
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/authdir/authdir/internal/auth"
	"github.com/authdir/authdir/internal/observability"
)

// AuthService defines the authentication operations the API serves.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisteredUser, error)
	Login(ctx context.Context, req auth.LoginRequest) error
}

// Server serves the JSON API.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	handler    *apiHandler
	running    atomic.Bool
}

// NewServer creates a new API server. metrics is optional; pass nil to skip
// outcome counters.
func NewServer(addr string, svc AuthService, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr: addr,
		handler: &apiHandler{
			svc:     svc,
			metrics: metrics,
			logger:  logger,
		},
	}, nil
}

// Start begins serving the API. It returns an error channel that receives
// any error from the HTTP server after startup; the channel is closed when
// the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/register", s.handler.handleRegister)
	mux.HandleFunc("POST /v1/login", s.handler.handleLogin)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.handler.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.handler.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Restore running state on failure so the server can be stopped again
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.handler.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
