package domain

import (
	"context"
	"time"
)

// HistoryTimeLayout formata o instante de captura com precisão de minuto.
const HistoryTimeLayout = "02/01/2006 15:04"

// Limites da janela de leitura do histórico.
const (
	MinWindow     = 1
	MaxWindow     = 20
	DefaultWindow = 5
)

// Route identifica logicamente o endpoint que gerou o registro. Os valores
// seguem o nome da operação (date_difference, get_day_of_week, ...), não o path.
type Route string

const (
	RouteBetween       Route = "date_difference"
	RouteWeekday       Route = "get_day_of_week"
	RouteGetHistory    Route = "get_history"
	RouteDeleteHistory Route = "delete_history"
)

// RouteOf mapeia método + path para a rota registrada no histórico.
// ok=false para rotas que não entram no histórico.
func RouteOf(method, path string) (route Route, ok bool) {
	switch {
	case method == "POST" && path == "/between":
		return RouteBetween, true
	case method == "POST" && path == "/weekday":
		return RouteWeekday, true
	case method == "GET" && path == "/history":
		return RouteGetHistory, true
	case method == "DELETE" && path == "/history":
		return RouteDeleteHistory, true
	}
	return "", false
}

// HistoryRecord é uma chamada registrada. Imutável depois de criado.
type HistoryRecord struct {
	Method string `json:"method"`
	At     string `json:"at"`
	Route  Route  `json:"route"`
}

// NewHistoryRecord captura method/route no instante at.
func NewHistoryRecord(method string, route Route, at time.Time) HistoryRecord {
	return HistoryRecord{
		Method: method,
		At:     at.Format(HistoryTimeLayout),
		Route:  route,
	}
}

// HistoryLog é a sequência ordenada de registros.
//
// Recent devolve até min(n, Len()) registros a partir do MAIS ANTIGO, e não
// valida n: quem chama garante o intervalo.
type HistoryLog interface {
	Append(rec HistoryRecord)
	Recent(n int) []HistoryRecord
	Clear()
	Len() int
}

// HistoryObserver recebe cada registro depois do append (estatísticas, espelhos).
// Erros são best-effort: não devem derrubar a requisição.
type HistoryObserver interface {
	Observe(ctx context.Context, rec HistoryRecord) error
}
