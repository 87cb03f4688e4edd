package server

import (
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"candidature-ai/internal/grpc/interceptors"
	"candidature-ai/internal/health"
	"candidature-ai/internal/logging"
)

// Server exposes grpc.health.v1.Health backed by the dependency checker
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	checker    *health.Checker
	interval   time.Duration
	logger     logging.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

func NewServer(checker *health.Checker, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(),
			interceptors.LoggingInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(),
			interceptors.StreamLoggingInterceptor(),
		),
	)

	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		checker:    checker,
		interval:   interval,
		logger:     logging.GetGlobalLogger().WithField("component", "grpc"),
		stop:       make(chan struct{}),
	}
}

// Start serves on lis until Stop is called
func (s *Server) Start(lis net.Listener) error {
	s.refresh()
	go s.watch()

	s.logger.Info("starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Stop reports NOT_SERVING to watchers and drains in-flight calls
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		s.logger.Info("gRPC server stopped")
	})
}
