package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vilaca/sprint-api/internal/reqid"
)

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestID honors an inbound X-Request-ID or mints one, propagates it via
// context so the gateway can stamp outbound calls, echoes it on the
// response, and writes the access log line.
func RequestID(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(reqid.Header)
		if id == "" {
			id = reqid.New()
		}
		w.Header().Set(reqid.Header, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(reqid.WithContext(r.Context(), id)))

		log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status_code", rec.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
