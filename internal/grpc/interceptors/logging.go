package interceptors

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"candidature-ai/internal/logging"
	"candidature-ai/pkg/utils"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// requestID reuses an x-request-id sent in metadata, otherwise mints one
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return utils.GenerateRequestID()
}

func logCall(method, requestID, kind string, start time.Time, err error) {
	logger := logging.GetGlobalLogger()
	fields := map[string]interface{}{
		"request_id":  requestID,
		"method":      method,
		"duration_ms": time.Since(start).Milliseconds(),
		"status_code": status.Code(err).String(),
		"type":        kind,
	}
	switch {
	case err != nil:
		fields["error"] = err.Error()
		logger.Error("gRPC call failed", fields)
	case strings.HasPrefix(method, healthServicePrefix):
		// Orchestrators probe health every few seconds
		logger.Debug("gRPC call completed", fields)
	default:
		logger.Info("gRPC call completed", fields)
	}
}

// LoggingInterceptor logs every unary call with its status and duration
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(info.FullMethod, requestID(ctx), "grpc_unary", start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs every stream once it ends
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(info.FullMethod, requestID(ss.Context()), "grpc_stream", start, err)
		return err
	}
}
