package middleware

import (
	"testing"

	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"

	"github.com/communityplatform/backend/internal/handlers/identity"
)

func TestRequireIdentity(t *testing.T) {
	// Simple handler that reads identity from context
	// Must always succeed cause middleware either sets it or rejects the request
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(id.Username))
		require.NoError(t, err, "should write username to response")
	})

	srv := httptest.NewServer(RequireIdentity()(handler))
	defer srv.Close()

	get := func(t *testing.T, headers map[string]string) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("trust headers ok", func(t *testing.T) {
		resp, body := get(t, map[string]string{
			"X-User-Id":  "42",
			"X-Username": "test-user",
		})

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", body)
		require.Equal(t, "test-user", body, "should return username in response")
	})

	t.Run("headers missing", func(t *testing.T) {
		resp, body := get(t, nil)

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
	})

	t.Run("malformed user id", func(t *testing.T) {
		resp, body := get(t, map[string]string{
			"X-User-Id":  "not-a-number",
			"X-Username": "test-user",
		})

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", body)
	})
}
