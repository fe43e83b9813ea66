package days

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"days-api/service/days/application"
	"days-api/service/days/domain"
	"days-api/service/days/infra"
)

const msgTooManyRequests = "Too many requests."

type KeyFunc func(r *http.Request) domain.ClientKey

// RateLimitOptions configura o rate limit das rotas que entram no histórico.
type RateLimitOptions struct {
	Store               domain.LimiterStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RetryAfter          time.Duration
	AddRateLimitHeaders bool

	// Denials recebe cada 429. NewHandler preenche com as estatísticas.
	Denials []domain.DenialObserver
	Logger  *slog.Logger
}

type routeLimits interface {
	LimitsFor(domain.Route) infra.Limits
}

// DefaultKeyFunc identifica o cliente por header, depois pelo primeiro IP do
// X-Forwarded-For (se confiável) e por fim pelo host de RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) domain.ClientKey {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.ClientKey(v)
			}
		}

		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return domain.ClientKey(ip)
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return domain.ClientKey(host)
		}
		if r.RemoteAddr != "" {
			return domain.ClientKey(r.RemoteAddr)
		}
		return "unknown"
	}
}

// RateLimit bloqueia com 429 + Retry-After quando o cliente esgota o bucket da
// rota. Rotas fora do histórico (/, /healthz, /stats, 404) passam direto.
func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	admission := application.Admission{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
		Denials:    opts.Denials,
		Logger:     opts.Logger,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, metered := domain.RouteOf(r.Method, r.URL.Path)
			if !metered {
				next.ServeHTTP(w, r)
				return
			}
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", string(key))
				if rl, ok := opts.Store.(routeLimits); ok {
					l := rl.LimitsFor(route)
					w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(l.RPS, 'f', -1, 64))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(l.Burst))
				}
			}

			dec := admission.Decide(r.Context(), domain.AdmissionRequest{Client: key, Method: r.Method, Route: route})
			if !dec.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(dec.RetryAfter)))
				writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima, com mínimo de 1s: Retry-After 0
// faria o cliente tentar de novo na hora.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
