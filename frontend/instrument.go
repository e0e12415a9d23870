package frontend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/balccon/balcconator/core"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// methodLabel keeps the cardinality of the method label bounded, clients can send any method.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions, http.MethodConnect, http.MethodTrace:
		return method
	default:
		return "other"
	}
}

// Instrument assigns a request id, attaches a logger carrying it to the request context, and logs and counts every request.
func Instrument(metrics *core.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {

		var id = uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		var logger = log.With().Str("request_id", id).Logger()
		req = req.WithContext(logger.WithContext(req.Context()))

		var rec = &statusRecorder{ResponseWriter: w}
		var start = time.Now()

		next.ServeHTTP(rec, req)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		metrics.Requests.WithLabelValues(methodLabel(req.Method), strconv.Itoa(rec.status)).Inc()

		logger.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
