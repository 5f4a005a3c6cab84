package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/pkg/parser"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLog emits one structured log line per request.
func RequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		os, browser := parser.ParseUserAgent(r.UserAgent())
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("client_os", os).
			Str("client_browser", browser).
			Msg("request")
	}
}
