package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDHeader); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *HealthServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	s.logger.Debug(ctx, "gRPC call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"request_id", requestID(ctx),
		"latency", time.Since(start),
	)

	return resp, err
}
