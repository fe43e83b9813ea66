package days

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"days-api/service/days/application"
	"days-api/service/days/domain"
	"days-api/service/days/infra"
)

// Options configura o handler do days-api. Campos nil recebem padrões:
// histórico e estatísticas em memória, logger descartado, relógio time.Now.
// Observers que também implementam domain.DenialObserver (ex: RedisStats)
// recebem as recusas do rate limit e do limite de concorrência.
type Options struct {
	History   domain.HistoryLog
	Stats     *infra.MemoryStats
	Observers []domain.HistoryObserver
	Now       func() time.Time
	Logger    *slog.Logger

	RateLimit   RateLimitOptions
	Concurrency ConcurrencyOptions
}

// NewHandler monta as rotas e a cadeia de middlewares:
// request id -> access log -> concorrência -> rate limit -> rotas.
func NewHandler(opts Options) http.Handler {
	if opts.History == nil {
		opts.History = infra.NewMemoryHistory()
	}
	if opts.Stats == nil {
		opts.Stats = infra.NewMemoryStats()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	observers := append([]domain.HistoryObserver{opts.Stats}, opts.Observers...)
	denials := []domain.DenialObserver{opts.Stats}
	for _, obs := range opts.Observers {
		if d, ok := obs.(domain.DenialObserver); ok {
			denials = append(denials, d)
		}
	}
	if opts.RateLimit.Denials == nil {
		opts.RateLimit.Denials = denials
	}
	if opts.RateLimit.Logger == nil {
		opts.RateLimit.Logger = opts.Logger
	}
	if opts.Concurrency.Denials == nil {
		opts.Concurrency.Denials = denials
	}
	if opts.Concurrency.Logger == nil {
		opts.Concurrency.Logger = opts.Logger
	}
	if opts.Concurrency.KeyFn == nil {
		opts.Concurrency.KeyFn = opts.RateLimit.KeyFn
	}
	if opts.Concurrency.KeyFn == nil {
		opts.Concurrency.KeyFn = DefaultKeyFunc(opts.RateLimit.KeyHeader, opts.RateLimit.TrustXForwardedFor)
	}

	h := &handlers{
		history: application.HistoryService{
			Log:       opts.History,
			Observers: observers,
			Now:       opts.Now,
			Logger:    opts.Logger,
		},
		stats: opts.Stats,
		log:   opts.Logger,
	}

	mux := http.NewServeMux()
	h.routes(mux)

	var handler http.Handler = mux
	handler = RateLimit(opts.RateLimit)(handler)
	handler = ConcurrencyLimit(opts.Concurrency)(handler)
	handler = AccessLog(opts.Logger)(handler)
	handler = WithRequestID(handler)
	return handler
}
