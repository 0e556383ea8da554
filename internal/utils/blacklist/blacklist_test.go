package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*RedisBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBlacklist(client, ""), mr
}

func TestRevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	bl, mr := newTestBlacklist(t)

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", 10*time.Minute))

	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(DefaultTokenPrefix+"jti-1"))
	assert.Equal(t, 10*time.Minute, mr.TTL(DefaultTokenPrefix+"jti-1"))
}

func TestRevokedEntryExpires(t *testing.T) {
	ctx := context.Background()
	bl, mr := newTestBlacklist(t)

	require.NoError(t, bl.Revoke(ctx, "jti-2", time.Minute))
	mr.FastForward(2 * time.Minute)

	revoked, err := bl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeSkipsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	bl, mr := newTestBlacklist(t)

	require.NoError(t, bl.Revoke(ctx, "jti-3", 0))
	assert.False(t, mr.Exists(DefaultTokenPrefix+"jti-3"))
}

func TestRedisFailureIsReported(t *testing.T) {
	ctx := context.Background()
	bl, mr := newTestBlacklist(t)
	mr.Close()

	_, err := bl.IsRevoked(ctx, "jti-4")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var bl Blacklist = Noop{}
	require.NoError(t, bl.Revoke(context.Background(), "x", time.Minute))
	revoked, err := bl.IsRevoked(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, revoked)
}
