package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// recorder remembers what the handler wrote so the access log can report it.
type recorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.size += int64(n)
	return n, err
}

func (rec *recorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// probePaths are polled by orchestrators; their access lines go to debug.
var probePaths = map[string]bool{"/healthz": true, "/readyz": true}

// WithAccessLog writes one "http request" line per request. 5xx responses log at warn.
func WithAccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelWarn
			case probePaths[r.URL.Path]:
				level = slog.LevelDebug
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("bytes", rec.size),
				slog.Int64("duration_ms", time.Since(began).Milliseconds()),
			)
		})
	}
}
