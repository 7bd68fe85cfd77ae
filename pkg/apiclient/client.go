package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned when the access token is rejected and the
// refresh token cannot mint a new one. Callers should prompt for login.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError carries the server's error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Client talks to the portal API. On a 401 it refreshes the token pair
// exactly once; concurrent requests hitting 401 at the same time share the
// single in-flight refresh instead of racing each other.
type Client struct {
	baseURL string
	http    *http.Client
	store   *SessionStore
	refresh singleflight.Group
}

func New(baseURL string, store *SessionStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
}

// Do performs one API call, decoding the data envelope into out (which may
// be nil). A 401 triggers a shared token refresh and a single retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	status, err := c.once(ctx, method, path, body, out)
	if err != nil || status != http.StatusUnauthorized {
		return err
	}

	if err := c.refreshTokens(ctx); err != nil {
		return err
	}

	status, err = c.once(ctx, method, path, body, out)
	if err == nil && status == http.StatusUnauthorized {
		// Fresh token still rejected: give up rather than loop.
		return ErrSessionExpired
	}
	return err
}

// once runs a single HTTP round trip. It returns http.StatusUnauthorized
// with a nil error so Do can decide whether to refresh and retry.
func (c *Client) once(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	sess, err := c.store.Load()
	if err != nil {
		return 0, err
	}
	if sess.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return http.StatusUnauthorized, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, truncate(raw))
	}
	if env.Status == "error" || resp.StatusCode >= 400 {
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// refreshTokens exchanges the stored refresh token for a new pair. All
// concurrent callers share one exchange; a failed refresh wipes the session.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		sess, err := c.store.Load()
		if err != nil {
			return nil, err
		}
		if sess.RefreshToken == "" {
			return nil, ErrSessionExpired
		}

		payload, _ := json.Marshal(map[string]string{"refresh_token": sess.RefreshToken})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/refresh", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_ = c.store.Clear()
			return nil, ErrSessionExpired
		}

		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, err
		}
		var tokens struct {
			AccessToken  string   `json:"access_token"`
			RefreshToken string   `json:"refresh_token"`
			User         *Profile `json:"user"`
		}
		if err := json.Unmarshal(env.Data, &tokens); err != nil {
			return nil, err
		}

		next := &Session{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			User:         tokens.User,
		}
		if next.User == nil {
			next.User = sess.User
		}
		return nil, c.store.Save(next)
	})
	return err
}

func truncate(raw []byte) string {
	s := string(raw)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
