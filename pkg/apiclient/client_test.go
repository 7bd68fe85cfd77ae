package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, sess *Session) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	if sess != nil {
		require.NoError(t, store.Save(sess))
	}
	return store
}

func writeEnvelope(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "success",
		"status_code": code,
		"data":        data,
	})
}

func TestDoDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, map[string]string{"name": "Storefront rebuild"})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, &Session{AccessToken: "tok"}))
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/projects/1", nil, &out))
	assert.Equal(t, "Storefront rebuild", out.Name)
}

func TestDoReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "error", "status_code": 403, "error": "not authorized",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, &Session{AccessToken: "tok"}))
	err := c.Do(context.Background(), http.MethodGet, "/api/transactions", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "not authorized", apiErr.Message)
}

// Two requests racing into a 401 must share one token refresh. The server
// holds the refresh exchange open until both stale requests have been
// rejected, so both callers are waiting on the refresh at the same time.
func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	var refreshCalls, staleSeen int32
	bothStale := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		<-bothStale
		atomic.AddInt32(&refreshCalls, 1)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"access_token":  "fresh",
			"refresh_token": "refresh-2",
		})
	})
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			if atomic.AddInt32(&staleSeen, 1) == 2 {
				close(bothStale)
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, http.StatusOK, []string{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newTestStore(t, &Session{AccessToken: "stale", RefreshToken: "refresh-1"})
	c := New(srv.URL, store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out []string
			errs[i] = c.Do(context.Background(), http.MethodGet, "/api/projects", nil, &out)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", sess.AccessToken)
	assert.Equal(t, "refresh-2", sess.RefreshToken)
}

func TestFailedRefreshClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newTestStore(t, &Session{AccessToken: "stale", RefreshToken: "dead"})
	c := New(srv.URL, store)

	err := c.Do(context.Background(), http.MethodGet, "/api/users/me", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)

	sess, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Empty(t, sess.AccessToken, "failed refresh must wipe the session")
}

func TestRetryGivesUpAfterSecond401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"access_token":  "fresh",
			"refresh_token": "refresh-2",
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, &Session{AccessToken: "stale", RefreshToken: "r"}))
	err := c.Do(context.Background(), http.MethodGet, "/api/users/me", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestMissingRefreshTokenFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, &Session{AccessToken: "stale"}))
	err := c.Do(context.Background(), http.MethodGet, "/api/users/me", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
