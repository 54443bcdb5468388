package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vilaca/sprint-api/internal/apperr"
	"github.com/vilaca/sprint-api/internal/reqid"
)

type errorItem struct {
	Code          string         `json:"code"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details"`
	CorrelationID string         `json:"correlation_id"`
}

type errorBody struct {
	Error errorItem `json:"error"`
}

// writeJSON serializes v with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps err onto the error envelope. Internal errors are logged
// with their cause but surfaced as an opaque message; taxonomy errors pass
// through with their code, message and details.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		h.log.Error("unhandled_error",
			zap.String("path", r.URL.Path),
			zap.String("request_id", reqid.FromContext(r.Context())),
			zap.Error(err),
		)
	} else {
		h.log.Warn("app_error",
			zap.String("code", string(e.Code)),
			zap.Int("status_code", e.HTTPStatus()),
			zap.String("path", r.URL.Path),
			zap.String("request_id", reqid.FromContext(r.Context())),
		)
	}

	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	h.writeJSON(w, e.HTTPStatus(), errorBody{Error: errorItem{
		Code:          string(e.Code),
		Message:       e.Message,
		Details:       details,
		CorrelationID: reqid.FromContext(r.Context()),
	}})
}
