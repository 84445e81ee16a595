package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/punchcard/backend/internal/fault"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a typed error to its HTTP status and wire code. Internal
// causes are logged server-side and never leak to the caller.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := fault.KindOf(err)
	if kind == fault.KindInternal && logger != nil {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, fault.HTTPStatus(kind), map[string]errorBody{
		"error": {Code: fault.Code(kind), Message: fault.Message(err)},
	})
}
