package days

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"days-api/service/days/application"
	"days-api/service/days/domain"
	"days-api/service/days/infra"
)

// maxBodyBytes limita o corpo JSON dos POSTs.
const maxBodyBytes = 1 << 20

// StatsSource fornece a fotografia servida em GET /stats.
type StatsSource interface {
	Snapshot() infra.Snapshot
}

type handlers struct {
	dates   application.DateService
	history application.HistoryService
	stats   StatsSource
	log     *slog.Logger
}

type statsResponse struct {
	HistorySize int `json:"historySize"`
	infra.Snapshot
}

func (h *handlers) routes(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", methods(map[string]http.HandlerFunc{http.MethodGet: h.index}))
	mux.HandleFunc("/between", methods(map[string]http.HandlerFunc{http.MethodPost: h.between}))
	mux.HandleFunc("/weekday", methods(map[string]http.HandlerFunc{http.MethodPost: h.weekday}))
	mux.HandleFunc("/history", methods(map[string]http.HandlerFunc{
		http.MethodGet:    h.getHistory,
		http.MethodDelete: h.deleteHistory,
	}))
	mux.HandleFunc("/stats", methods(map[string]http.HandlerFunc{http.MethodGet: h.getStats}))
	mux.HandleFunc("/healthz", methods(map[string]http.HandlerFunc{http.MethodGet: h.healthz}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
}

// methods despacha por método e responde 405 em JSON para os demais.
func methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fn, ok := byMethod[r.Method]; ok {
			fn(w, r)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Days API."})
}

func (h *handlers) between(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	days, err := h.dates.Between(fields)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	h.history.Record(r.Context(), r.Method, domain.RouteBetween)
	writeJSON(w, http.StatusOK, map[string]int{"days": days})
}

func (h *handlers) weekday(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	weekday, err := h.dates.Weekday(fields)
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	h.history.Record(r.Context(), r.Method, domain.RouteWeekday)
	writeJSON(w, http.StatusOK, map[string]string{"weekday": weekday})
}

// getHistory lê a janela ANTES de registrar a própria chamada: ela só aparece
// na resposta da próxima.
func (h *handlers) getHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := h.history.Window(q.Get("number"), q.Has("number"))
	if err != nil {
		writeDomainError(w, r, h.log, err)
		return
	}
	recs := h.history.Recent(n)
	h.history.Record(r.Context(), r.Method, domain.RouteGetHistory)
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) deleteHistory(w http.ResponseWriter, r *http.Request) {
	h.history.Clear()
	h.history.Record(r.Context(), r.Method, domain.RouteDeleteHistory)
	writeJSON(w, http.StatusOK, map[string]string{"status": "History cleared"})
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{HistorySize: h.history.Log.Len()}
	if h.stats != nil {
		resp.Snapshot = h.stats.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeFields lê o corpo como um único objeto JSON. Corpo ausente, malformado,
// que não seja objeto ou com dados após o objeto conta como dado obrigatório
// ausente; corpo acima de maxBodyBytes vira errBodyTooLarge.
func decodeFields(w http.ResponseWriter, r *http.Request) (application.Fields, error) {
	var fields application.Fields
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&fields); err != nil {
		return nil, bodyError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, bodyError(err)
		}
		return nil, domain.ErrMissingData
	}
	return fields, nil
}

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errBodyTooLarge
	}
	return domain.ErrMissingData
}
