package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"candidature-ai/internal/config"
	"candidature-ai/internal/grpc/server"
	"candidature-ai/internal/health"
	"candidature-ai/internal/logging"
)

// Multiplexer serves gRPC and HTTP on one port, routing by protocol
type Multiplexer struct {
	logger logging.Logger

	grpcServer *server.Server
	httpServer *http.Server

	mux      cmux.CMux
	listener net.Listener

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewMultiplexer wires the HTTP handler and a gRPC health server fed by checker
func NewMultiplexer(cfg *config.Config, checker *health.Checker, httpHandler http.Handler) *Multiplexer {
	return &Multiplexer{
		logger:     logging.GetGlobalLogger().WithField("component", "mux"),
		grpcServer: server.NewServer(checker, 10*time.Second),
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and serves both protocols in the background
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	m.listener = listener
	m.mux = cmux.New(listener)

	grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpListener := m.mux.Match(cmux.Any())

	m.wg.Add(3)
	go func() {
		defer m.wg.Done()
		if err := m.grpcServer.Start(grpcListener); err != nil && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	go func() {
		defer m.wg.Done()
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			m.logger.Error("multiplexer failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("multiplexer started", map[string]interface{}{"address": listener.Addr().String()})
	return nil
}

// Addr returns the bound address, useful when listening on port 0
func (m *Multiplexer) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Stop drains HTTP, then gRPC, then closes the shared listener
func (m *Multiplexer) Stop(ctx context.Context) error {
	var stopErr error
	m.stopOnce.Do(func() {
		if err := m.httpServer.Shutdown(ctx); err != nil {
			stopErr = fmt.Errorf("http shutdown: %w", err)
		}
		m.grpcServer.Stop()
		if m.listener != nil {
			if err := m.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				m.logger.Warn("failed to close listener", map[string]interface{}{"error": err.Error()})
			}
		}

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			m.logger.Info("multiplexer stopped")
		case <-ctx.Done():
			m.logger.Warn("multiplexer shutdown timed out")
		}
	})
	return stopErr
}
