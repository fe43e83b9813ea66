package application

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"days-api/service/days/domain"
)

// HistoryService concentra as regras do histórico: registro, janela e limpeza.
type HistoryService struct {
	Log       domain.HistoryLog
	Observers []domain.HistoryObserver
	// Now permite fixar o relógio em testes. nil = time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Record adiciona um registro e avisa os observers (best-effort).
func (s HistoryService) Record(ctx context.Context, method string, route domain.Route) domain.HistoryRecord {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	rec := domain.NewHistoryRecord(method, route, now())
	s.Log.Append(rec)

	for _, obs := range s.Observers {
		if obs == nil {
			continue
		}
		if err := obs.Observe(ctx, rec); err != nil && s.Logger != nil {
			s.Logger.Warn("history observer failed", "route", rec.Route, "error", err)
		}
	}
	return rec
}

// Window valida o parâmetro "number". Ausente (present=false) usa
// domain.DefaultWindow; presente precisa ser inteiro em [MinWindow, MaxWindow].
func (HistoryService) Window(raw string, present bool) (int, error) {
	if !present {
		return domain.DefaultWindow, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < domain.MinWindow || n > domain.MaxWindow {
		return 0, &domain.RangeError{Value: raw, Min: domain.MinWindow, Max: domain.MaxWindow}
	}
	return n, nil
}

// Recent devolve até n registros, do mais antigo para o mais novo.
func (s HistoryService) Recent(n int) []domain.HistoryRecord {
	return s.Log.Recent(n)
}

func (s HistoryService) Clear() {
	s.Log.Clear()
}
