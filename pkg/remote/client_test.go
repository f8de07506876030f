package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskhub/pkg/logger"
	"github.com/dmitrymomot/taskhub/pkg/remote"
)

type userBody struct {
	User struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	} `json:"user"`
}

func TestClient_GetJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes a successful response", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotRequestID string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotRequestID = r.Header.Get(logger.HeaderRequestID)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":3,"name":"Ada"}}`))
		}))
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL + "/")
		require.NoError(t, err)

		var body userBody
		ctx := logger.WithRequestID(context.Background(), "req-9")
		require.NoError(t, c.GetJSON(ctx, "/api/auth/users/3", &body))

		assert.Equal(t, 3, body.User.ID)
		assert.Equal(t, "Ada", body.User.Name)
		assert.Equal(t, "/api/auth/users/3", gotPath)
		assert.Equal(t, "req-9", gotRequestID)
	})

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL)
		require.NoError(t, err)

		err = c.GetJSON(context.Background(), "/api/auth/users/404", &userBody{})
		require.ErrorIs(t, err, remote.ErrNotFound)
	})

	t.Run("maps other statuses to ErrUnexpectedStatus", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL)
		require.NoError(t, err)

		err = c.GetJSON(context.Background(), "/x", &userBody{})
		require.ErrorIs(t, err, remote.ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL)
		require.NoError(t, err)

		require.ErrorIs(t, c.GetJSON(context.Background(), "/x", &userBody{}), remote.ErrDecode)
	})

	t.Run("honours the context deadline", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err = c.GetJSON(ctx, "/slow", &userBody{})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_Breaker(t *testing.T) {
	t.Parallel()

	t.Run("opens after repeated failures", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL, remote.WithBreaker(3, 0.5, time.Minute))
		require.NoError(t, err)

		for range 3 {
			require.ErrorIs(t, c.GetJSON(context.Background(), "/x", &userBody{}), remote.ErrUnexpectedStatus)
		}

		err = c.GetJSON(context.Background(), "/x", &userBody{})
		require.ErrorIs(t, err, remote.ErrUnavailable)
		assert.Equal(t, int64(3), hits.Load(), "open breaker must not call the service")
		assert.Equal(t, "open", c.State())
	})

	t.Run("not found does not trip the breaker", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		c, err := remote.New(srv.URL, remote.WithBreaker(2, 0.5, time.Minute))
		require.NoError(t, err)

		for range 5 {
			require.ErrorIs(t, c.GetJSON(context.Background(), "/x", &userBody{}), remote.ErrNotFound)
		}
		assert.Equal(t, "closed", c.State())
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := remote.New("")
	require.ErrorIs(t, err, remote.ErrBaseURLRequired)

	_, err = remote.New("://bad")
	require.Error(t, err)
}
