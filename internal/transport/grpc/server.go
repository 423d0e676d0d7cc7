package grpc

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"streak-service/internal/identity"
	"streak-service/internal/logger"
)

// Metadata keys read from incoming calls
const (
	authorizationKey = "authorization"
	userIDKey        = "x-user-id"
)

// Server represents a gRPC server
type Server struct {
	grpcServer *grpc.Server
	handler    *StreakServiceHandler
	port       int
}

// NewServer creates a new gRPC server.
// trustUserHeader honors the x-user-id metadata key; enable it only behind a gateway that sets it.
func NewServer(handler *StreakServiceHandler, port int, trustUserHeader bool) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor, authInterceptor(trustUserHeader)),
	)

	RegisterStreakServiceServer(grpcServer, handler)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		handler:    handler,
		port:       port,
	}
}

// Start starts the gRPC server
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	logger.Info("gRPC server listening", "port", s.port)
	return s.Serve(listener)
}

// Serve accepts connections on listener until Stop is called
func (s *Server) Serve(listener net.Listener) error {
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the gRPC server
func (s *Server) Stop() {
	logger.Info("gracefully stopping gRPC server")
	s.grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}

// authInterceptor moves caller credentials from metadata onto the context.
// A bearer token is validated later by the identity provider.
func authInterceptor(trustUserHeader bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		if values := md.Get(authorizationKey); len(values) > 0 {
			if token, found := strings.CutPrefix(values[0], "Bearer "); found && token != "" {
				ctx = identity.WithToken(ctx, token)
			}
		}
		if values := md.Get(userIDKey); len(values) > 0 && values[0] != "" {
			if trustUserHeader {
				ctx = identity.WithUserID(ctx, values[0])
			} else {
				logger.Debug("ignoring untrusted user id metadata", "method", info.FullMethod)
			}
		}

		return handler(ctx, req)
	}
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	if err != nil {
		logger.Warn("gRPC call failed", "method", info.FullMethod, "code", status.Code(err), "duration", time.Since(start))
	} else {
		logger.Debug("gRPC call", "method", info.FullMethod, "duration", time.Since(start))
	}
	return resp, err
}
