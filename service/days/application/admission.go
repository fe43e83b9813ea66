package application

import (
	"context"
	"log/slog"
	"time"

	"days-api/service/days/domain"
)

// Admission aplica o rate limit por cliente e rota e reporta as recusas.
//
// Não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Admission struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
	Denials    []domain.DenialObserver
	Logger     *slog.Logger
}

func (a Admission) Decide(ctx context.Context, req domain.AdmissionRequest) domain.Decision {
	if a.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if a.RetryAfter <= 0 {
		a.RetryAfter = 1 * time.Second
	}

	lim := a.Store.Get(req.Client, req.Route)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}

	reportDenial(ctx, a.Denials, a.Logger, domain.Denial{
		Reason: domain.DenyRateLimited,
		Client: req.Client,
		Method: req.Method,
		Route:  req.Route,
	})
	return domain.Decision{Allowed: false, RetryAfter: a.RetryAfter}
}

// Slots controla a aquisição de vagas de concorrência com timeout opcional.
type Slots struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
	Denials        []domain.DenialObserver
	Logger         *slog.Logger
}

// Acquire tenta adquirir uma vaga para req.
// - Se `AcquireTimeout <= 0`, espera até o ctx cancelar.
// - Se `AcquireTimeout > 0`, espera até o timeout.
// Se ok=false, nenhuma vaga foi adquirida e a recusa já foi reportada.
func (s Slots) Acquire(ctx context.Context, req domain.AdmissionRequest) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if !ok {
		// ctx do próprio cliente encerrado não é sobrecarga
		if ctx.Err() == nil {
			reportDenial(ctx, s.Denials, s.Logger, domain.Denial{
				Reason: domain.DenyOverloaded,
				Client: req.Client,
				Method: req.Method,
				Route:  req.Route,
			})
		}
		return nil, false
	}
	return release, true
}

func reportDenial(ctx context.Context, observers []domain.DenialObserver, logger *slog.Logger, d domain.Denial) {
	for _, obs := range observers {
		if obs == nil {
			continue
		}
		if err := obs.ObserveDenial(ctx, d); err != nil && logger != nil {
			logger.Warn("denial observer failed", "reason", d.Reason, "route", d.Route, "error", err)
		}
	}
}
