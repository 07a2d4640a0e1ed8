package userclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communityplatform/backend/internal/logger"
)

func Test_Client_GetProfile(t *testing.T) {
	t.Parallel()

	t.Run("profile decoded ok", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/users/42", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": 42, "username": "alice", "firstName": "Alice", "lastName": "Liddell"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second, logger.NewNoOp())

		p := c.GetProfile(t.Context(), 42)

		require.NotNil(t, p)
		assert.Equal(t, int64(42), p.ID)
		assert.Equal(t, "alice", p.Username)
		assert.Equal(t, "Alice", p.FirstName)
	})

	t.Run("nil on non 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second, logger.NewNoOp())

		assert.Nil(t, c.GetProfile(t.Context(), 42))
	})

	t.Run("nil on slow server", func(t *testing.T) {
		block := make(chan struct{})

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer srv.Close()
		defer close(block)

		c := NewClient(srv.URL, 50*time.Millisecond, logger.NewNoOp())

		start := time.Now()
		p := c.GetProfile(t.Context(), 42)

		assert.Nil(t, p, "slow answer should degrade to no profile")
		assert.Less(t, time.Since(start), time.Second, "call must give up by its own deadline")
	})

	t.Run("nil on unreachable server", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", time.Second, logger.NewNoOp())

		assert.Nil(t, c.GetProfile(t.Context(), 42))
	})

	t.Run("nil on broken body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second, logger.NewNoOp())

		assert.Nil(t, c.GetProfile(t.Context(), 42))
	})

	t.Run("default timeout applied", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", 0, logger.NewNoOp())

		assert.Equal(t, defaultTimeout, c.timeout)
	})
}
