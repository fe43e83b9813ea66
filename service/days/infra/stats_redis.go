package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"days-api/service/days/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStats espelha os contadores do histórico no Redis.
//
// Chaves (com prefix padrão "days:stats"):
//
//	<prefix>:total               hash method -> contagem (cumulativo, sem TTL)
//	<prefix>:route               hash route -> contagem (cumulativo, sem TTL)
//	<prefix>:denied              hash motivo -> recusas (cumulativo, sem TTL)
//	<prefix>:minute:YYYYMMDDhhmm hash route ou denied:<motivo> -> contagem (expira após ttl)
type RedisStats struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas nos buckets por minuto.
	ttl time.Duration
	now func() time.Time
}

type RedisStatsOption func(*RedisStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = d }
}

// WithStatsClock fixa o relógio usado para escolher o bucket por minuto.
func WithStatsClock(now func() time.Time) RedisStatsOption {
	return func(s *RedisStats) { s.now = now }
}

func NewRedisStats(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: "days:stats",
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStats) Prefix() string { return s.prefix }

// BucketKey devolve a chave do bucket por minuto de at.
func (s *RedisStats) BucketKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func (s *RedisStats) Observe(ctx context.Context, rec domain.HistoryRecord) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	method := strings.TrimSpace(rec.Method)
	route := strings.TrimSpace(string(rec.Route))
	if route == "" {
		route = "unknown"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", method, 1)
	pipe.HIncrBy(ctx, s.prefix+":route", route, 1)

	bucketKey := s.BucketKey(s.now())
	pipe.HIncrBy(ctx, bucketKey, route, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis stats: %w", err)
	}
	return nil
}

// ObserveDenial implementa domain.DenialObserver.
func (s *RedisStats) ObserveDenial(ctx context.Context, d domain.Denial) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	reason := string(d.Reason)
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":denied", reason, 1)

	bucketKey := s.BucketKey(s.now())
	pipe.HIncrBy(ctx, bucketKey, "denied:"+reason, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis stats: %w", err)
	}
	return nil
}
