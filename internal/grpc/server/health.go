package server

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported alongside the overall "" status
const ServiceName = "candidature.v1.Generation"

func (s *Server) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refresh()
		case <-s.stop:
			return
		}
	}
}

// refresh runs the dependency checks once and publishes the result
func (s *Server) refresh() healthpb.HealthCheckResponse_ServingStatus {
	report := s.checker.Run(context.Background())

	status := healthpb.HealthCheckResponse_SERVING
	if !report.Ready {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("dependencies not ready", map[string]interface{}{"checks": report.Checks})
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}
