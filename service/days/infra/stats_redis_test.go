package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"days-api/service/days/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStats_NilClientIsNoop(t *testing.T) {
	var s *RedisStats
	assert.NoError(t, s.Observe(context.Background(), domain.HistoryRecord{}))
	assert.NoError(t, NewRedisStats(nil).Observe(context.Background(), domain.HistoryRecord{}))
	assert.NoError(t, s.ObserveDenial(context.Background(), domain.Denial{}))
	assert.NoError(t, NewRedisStats(nil).ObserveDenial(context.Background(), domain.Denial{}))
}

func TestRedisStats_Options(t *testing.T) {
	at := time.Date(2024, time.January, 1, 13, 45, 0, 0, time.UTC)
	s := NewRedisStats(nil, WithStatsPrefix(":custom:"), WithStatsTTL(time.Minute))

	assert.Equal(t, "custom", s.Prefix())
	assert.Equal(t, "custom:minute:202401011345", s.BucketKey(at))
}

// Requer um Redis real: REDIS_ADDR=localhost:6379 go test ./...
func TestRedisStats_ObserveIncrementsCounters(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	at := time.Date(2024, time.January, 1, 13, 45, 0, 0, time.UTC)
	prefix := "days:test:" + time.Now().Format("150405.000000")
	s := NewRedisStats(rdb, WithStatsPrefix(prefix), WithStatsTTL(time.Minute), WithStatsClock(func() time.Time { return at }))
	t.Cleanup(func() {
		_ = rdb.Del(ctx, prefix+":total", prefix+":route", prefix+":denied", s.BucketKey(at)).Err()
	})

	require.NoError(t, s.Observe(ctx, domain.HistoryRecord{Method: "POST", Route: domain.RouteBetween}))
	require.NoError(t, s.Observe(ctx, domain.HistoryRecord{Method: "POST", Route: domain.RouteBetween}))

	got, err := rdb.HGet(ctx, prefix+":route", "date_difference").Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)

	got, err = rdb.HGet(ctx, prefix+":total", "POST").Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)

	require.NoError(t, s.ObserveDenial(ctx, domain.Denial{Reason: domain.DenyRateLimited, Route: domain.RouteBetween}))
	got, err = rdb.HGet(ctx, prefix+":denied", "rate_limited").Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)

	got, err = rdb.HGet(ctx, s.BucketKey(at), "denied:rate_limited").Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)

	ttl, err := rdb.TTL(ctx, s.BucketKey(at)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
