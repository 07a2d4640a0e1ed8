package middleware

import (
	"net/http"
	"time"
)

type logger interface {
	Info(msg string, args ...any)
}

// responseMeter records the status code and body size that went out,
// since http.ResponseWriter gives no way to read them back
type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) Write(p []byte) (int, error) {
	n, err := m.ResponseWriter.Write(p)
	m.bytes += n
	return n, err
}

func (m *responseMeter) WriteHeader(statusCode int) {
	m.ResponseWriter.WriteHeader(statusCode)
	m.status = statusCode
}

// LoggerMiddleware logs one line per request after the handler returns
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meter := &responseMeter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(meter, r)

			l.Info("request completed",
				"method", r.Method,
				"uri", r.RequestURI,
				"status", meter.status,
				"size", meter.bytes,
				"duration", time.Since(start),
			)
		})
	}
}
