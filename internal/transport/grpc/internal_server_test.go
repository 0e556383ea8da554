package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func dial(t *testing.T, db Pinger, apiKey string) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewInternalServer(db, apiKey, zap.NewNop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()

	resp, err := healthpb.NewHealthClient(dial(t, fakePinger{}, "")).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = healthpb.NewHealthClient(dial(t, fakePinger{err: errors.New("down")}, "")).
		Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestHealthCheckUnknownService(t *testing.T) {
	_, err := healthpb.NewHealthClient(dial(t, fakePinger{}, "k")).
		Check(context.Background(), &healthpb.HealthCheckRequest{Service: "billing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func reflectionCall(ctx context.Context, conn *grpc.ClientConn) error {
	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	if err != nil {
		return err
	}
	// A rejected stream surfaces its status on Recv; Send only reports io.EOF.
	_ = stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{},
	})
	_, err = stream.Recv()
	return err
}

func TestReflectionRequiresAPIKey(t *testing.T) {
	conn := dial(t, fakePinger{}, "secret")

	err := reflectionCall(context.Background(), conn)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(context.Background(), apiKeyHeader, "wrong")
	assert.Equal(t, codes.Unauthenticated, status.Code(reflectionCall(bad, conn)))

	good := metadata.AppendToOutgoingContext(context.Background(), apiKeyHeader, "secret")
	assert.NoError(t, reflectionCall(good, conn))
}

func TestReflectionDisabledWithoutAPIKey(t *testing.T) {
	conn := dial(t, fakePinger{}, "")
	ctx := metadata.AppendToOutgoingContext(context.Background(), apiKeyHeader, "")
	assert.Equal(t, codes.Unauthenticated, status.Code(reflectionCall(ctx, conn)))
}

func TestCheckAPIKeyExemptsHealth(t *testing.T) {
	assert.NoError(t, checkAPIKey(context.Background(), "/grpc.health.v1.Health/Check", "secret"))
	assert.Error(t, checkAPIKey(context.Background(), "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo", "secret"))
}
