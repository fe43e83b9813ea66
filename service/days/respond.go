package days

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"days-api/service/days/domain"
)

const (
	msgInternal         = "An internal error occurred."
	msgMethodNotAllowed = "Method not allowed."
	msgNotFound         = "Not found."
	msgBodyTooLarge     = "Request body too large."
)

// errBodyTooLarge indica corpo acima de maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError traduz erros de entrada para 400 (413 para corpo grande
// demais). Qualquer outro erro vira 500 com mensagem genérica; a causa só vai
// para o log.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		pe *domain.ParseError
		re *domain.RangeError
	)
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
	case errors.Is(err, domain.ErrMissingData):
		writeError(w, http.StatusBadRequest, domain.MsgMissingData)
	case errors.As(err, &pe):
		log.Debug("invalid date", "path", r.URL.Path, "detail", pe.Detail(), "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadRequest, pe.Error())
	case errors.As(err, &re):
		writeError(w, http.StatusBadRequest, re.Error())
	default:
		log.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
