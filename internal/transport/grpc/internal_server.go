package grpc

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const (
	ServiceName  = "hr_project"
	apiKeyHeader = "x-api-key"
	healthPrefix = "/grpc.health.v1.Health/"
	pingTimeout  = 2 * time.Second
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer reports SERVING while the database answers pings.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	db  Pinger
	log *zap.Logger
}

func NewHealthServer(db Pinger, log *zap.Logger) *HealthServer {
	return &HealthServer{db: db, log: log}
}

func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn("Health check failed", zap.Error(err))
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// NewInternalServer builds the internal gRPC server: health, reflection and the
// API key interceptors. An empty apiKey leaves only health reachable.
func NewInternalServer(db Pinger, apiKey string, log *zap.Logger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingUnary(log), apiKeyUnary(apiKey)),
		grpc.ChainStreamInterceptor(apiKeyStream(apiKey)),
	)
	healthpb.RegisterHealthServer(srv, NewHealthServer(db, log))
	reflection.Register(srv)
	return srv
}

func loggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("gRPC call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

func apiKeyUnary(apiKey string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := checkAPIKey(ctx, info.FullMethod, apiKey); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func apiKeyStream(apiKey string) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkAPIKey(ss.Context(), info.FullMethod, apiKey); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func checkAPIKey(ctx context.Context, method, apiKey string) error {
	if strings.HasPrefix(method, healthPrefix) {
		return nil
	}
	if apiKey == "" {
		return status.Error(codes.Unauthenticated, "Internal API is disabled")
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "Metadata is missing")
	}
	keys := md.Get(apiKeyHeader)
	if len(keys) == 0 || subtle.ConstantTimeCompare([]byte(keys[0]), []byte(apiKey)) != 1 {
		return status.Error(codes.Unauthenticated, "Invalid API key")
	}
	return nil
}
