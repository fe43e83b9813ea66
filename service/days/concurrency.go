package days

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"days-api/service/days/application"
	"days-api/service/days/domain"
)

const msgUnavailable = "Service temporarily unavailable."

// ConcurrencyOptions limita quantas chamadas do histórico rodam ao mesmo tempo.
type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	KeyFn          KeyFunc

	// Denials recebe cada 503. NewHandler preenche com as estatísticas.
	Denials []domain.DenialObserver
	Logger  *slog.Logger
}

// slotPool é um semáforo em channel; implementa domain.SlotPool.
type slotPool chan struct{}

func (p slotPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p <- struct{}{}:
		return func() { <-p }, true
	case <-ctx.Done():
		return nil, false
	}
}

// ConcurrencyLimit responde 503 quando não há vaga dentro de AcquireTimeout.
// Max <= 0 desliga o limite; rotas fora do histórico nunca esperam vaga.
func ConcurrencyLimit(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc("", false)
	}

	slots := application.Slots{
		Pool:           make(slotPool, opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
		Denials:        opts.Denials,
		Logger:         opts.Logger,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, metered := domain.RouteOf(r.Method, r.URL.Path)
			if !metered {
				next.ServeHTTP(w, r)
				return
			}

			req := domain.AdmissionRequest{Client: opts.KeyFn(r), Method: r.Method, Route: route}
			release, ok := slots.Acquire(r.Context(), req)
			if !ok {
				writeError(w, http.StatusServiceUnavailable, msgUnavailable)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
