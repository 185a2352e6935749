package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Custom response writer to capture the status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs details about the HTTP request and response.
func LoggingMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lrw := &loggingResponseWriter{w, http.StatusOK}

			log.Debug().Str("method", r.Method).Str("uri", r.RequestURI).Str("remote", r.RemoteAddr).Msg("received request")

			startTime := time.Now()
			next.ServeHTTP(lrw, r)

			log.Info().
				Str("method", r.Method).
				Str("uri", r.RequestURI).
				Int("status", lrw.statusCode).
				Dur("took", time.Since(startTime)).
				Msg("request served")
		})
	}
}
