// Package middleware holds in house middlewares for the ops server
package middleware

import (
	"net/http"
	"time"

	"warden/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Quiet paths are logged at debug level (metrics scrapes, health probes)
	Quiet []string
}

// captureWriter records status & bytes
type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// AccessLog logs method, path, status, elapsed, bytes and request id
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	quiet := make(map[string]struct{}, len(opt.Quiet))
	for _, p := range opt.Quiet {
		quiet[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			log := logger.Named("ops-http")
			evt := log.Info()
			if _, ok := quiet[r.URL.Path]; ok {
				evt = log.Debug()
			}
			if cw.status >= http.StatusInternalServerError {
				evt = log.Warn()
			}
			evt.Int("status", cw.status).
				Dur("elapsed", time.Since(start)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", chimw.GetReqID(r.Context())).
				Int("bytes", cw.bytes).
				Msg("request done")
		})
	}
}
