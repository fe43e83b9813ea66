package infra

import (
	"context"
	"sync"
	"time"

	"days-api/service/days/domain"

	"golang.org/x/time/rate"
)

// Limits é a taxa (eventos/s) e a rajada de um token bucket.
type Limits struct {
	RPS   float64
	Burst int
}

// LimiterStore mantém token buckets (x/time/rate) por cliente.
//
// Por padrão todas as rotas de um cliente dividem um único bucket. Rotas com
// WithRouteLimits ganham bucket próprio (ex: DELETE /history, que apaga o
// histórico de todo mundo, com taxa menor) e não consomem o bucket comum.
type LimiterStore struct {
	mu           sync.Mutex
	buckets      map[bucketKey]*bucket
	shared       Limits
	byRoute      map[domain.Route]Limits
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

// bucketKey.route vazio = bucket comum do cliente.
type bucketKey struct {
	client domain.ClientKey
	route  domain.Route
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type LimiterOption func(*LimiterStore)

func WithIdleTTL(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.cleanupEvery = d }
}

// WithRouteLimits dá a route um bucket próprio por cliente. rps <= 0 ou
// burst <= 0 é ignorado.
func WithRouteLimits(route domain.Route, rps float64, burst int) LimiterOption {
	return func(s *LimiterStore) {
		if rps <= 0 || burst <= 0 {
			return
		}
		s.byRoute[route] = Limits{RPS: rps, Burst: burst}
	}
}

func NewLimiterStore(rps float64, burst int, opts ...LimiterOption) *LimiterStore {
	s := &LimiterStore{
		buckets:      make(map[bucketKey]*bucket),
		shared:       Limits{RPS: rps, Burst: burst},
		byRoute:      make(map[domain.Route]Limits),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LimitsFor devolve os limites aplicados a route.
func (s *LimiterStore) LimitsFor(route domain.Route) Limits {
	if l, ok := s.byRoute[route]; ok {
		return l
	}
	return s.shared
}

// Get implementa domain.LimiterStore.
func (s *LimiterStore) Get(client domain.ClientKey, route domain.Route) domain.Limiter {
	key := bucketKey{client: client}
	limits := s.shared
	if l, ok := s.byRoute[route]; ok {
		key.route = route
		limits = l
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[key]; ok {
		b.lastSeen = now
		return b.lim
	}

	lim := rate.NewLimiter(rate.Limit(limits.RPS), limits.Burst)
	s.buckets[key] = &bucket{lim: lim, lastSeen: now}
	return lim
}

// Len devolve quantos buckets estão em cache.
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *LimiterStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, k)
		}
	}
}

// StartJanitor limpa buckets inativos periodicamente até o ctx encerrar.
func (s *LimiterStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
