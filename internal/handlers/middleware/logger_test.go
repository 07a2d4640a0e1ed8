package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loggerFunc func(msg string, args ...any)

func (f loggerFunc) Info(msg string, args ...any) { f(msg, args...) }

func TestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	var gotMsg string
	logged := make(map[string]any)
	l := loggerFunc(func(msg string, args ...any) {
		gotMsg = msg
		for i := 0; i+1 < len(args); i += 2 {
			logged[args[i].(string)] = args[i+1]
		}
	})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout")) // nolint:errcheck
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?limit=5", nil)
	rec := httptest.NewRecorder()

	LoggerMiddleware(l)(inner).ServeHTTP(rec, req)

	require.Equal(t, "request completed", gotMsg, "request must be logged after serving")
	assert.Equal(t, http.MethodGet, logged["method"])
	assert.Equal(t, "/api/v1/posts?limit=5", logged["uri"])
	assert.Equal(t, http.StatusTeapot, logged["status"])
	assert.Equal(t, len("short and stout"), logged["size"])

	duration, ok := logged["duration"].(time.Duration)
	require.True(t, ok, "duration must be logged as time.Duration")
	assert.GreaterOrEqual(t, duration, time.Duration(0))
}
