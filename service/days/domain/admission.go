package domain

// Contratos do controle de admissão do days-api, sem dependência de net/http.
//
// Só as rotas que entram no histórico (ver RouteOf) passam pelo controle; as
// rotas informativas (/, /healthz, /stats) nunca são bloqueadas.

import (
	"context"
	"time"
)

// ClientKey identifica o cliente (IP, API key, etc.).
type ClientKey string

// Limiter decide se uma ação é permitida agora.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém o limiter de um cliente para uma rota. A implementação
// decide se rotas diferentes compartilham o mesmo bucket.
type LimiterStore interface {
	Get(ClientKey, Route) Limiter
}

// AdmissionRequest é o que o controle de admissão sabe sobre a chamada.
type AdmissionRequest struct {
	Client ClientKey
	Method string
	Route  Route
}

type Decision struct {
	Allowed bool
	// RetryAfter vai no header Retry-After quando bloquear. 0 = sem recomendação.
	RetryAfter time.Duration
}

// DenyReason diz por que uma chamada foi recusada antes de chegar ao handler.
type DenyReason string

const (
	DenyRateLimited DenyReason = "rate_limited"
	DenyOverloaded  DenyReason = "overloaded"
)

// Denial é uma chamada recusada. Não entra no histórico, só nas estatísticas.
type Denial struct {
	Reason DenyReason
	Client ClientKey
	Method string
	Route  Route
}

// DenialObserver recebe as recusas (best-effort, como HistoryObserver).
type DenialObserver interface {
	ObserveDenial(ctx context.Context, d Denial) error
}

// SlotPool é um recurso de capacidade finita.
//
// Acquire bloqueia até conseguir vaga ou até o ctx encerrar. O release
// retornado deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
