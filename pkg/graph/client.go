// pkg/graph/client.go
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mspcore/pkg/config"
)

// Client is a minimal Graph-style REST client authenticating with the
// client-credentials grant. Tokens are cached until shortly before expiry.
type Client struct {
	base         string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	log          *zap.SugaredLogger

	mu          sync.Mutex
	accessToken string
	tokenExp    time.Time
}

func New(cfg config.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		base:         strings.TrimRight(cfg.GraphBaseURL, "/"),
		tokenURL:     cfg.GraphTokenURL,
		clientID:     cfg.GraphClientID,
		clientSecret: cfg.GraphClientSecret,
		httpClient:   &http.Client{Timeout: cfg.GraphHTTPTimeout},
		log:          log,
	}
}

// StatusError carries the HTTP status of a non-2xx API response so callers
// can branch on conflicts without string matching.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph: status %d: %s", e.Status, e.Body)
}

// IsConflict reports whether err is a 409 from the remote API. Grant
// operations treat conflicts as "already applied".
func IsConflict(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Status == http.StatusConflict
}

// Get performs a GET against base+path and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST with a JSON body and decodes the JSON response
// (which may be empty for 204-style endpoints).
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	var rd io.Reader
	if body != nil {
		bb, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(bb)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExp) {
		return c.accessToken, nil
	}
	if c.tokenURL == "" {
		return "", fmt.Errorf("token url not configured")
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", c.base+"/.default")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	c.accessToken = tr.AccessToken
	// Renew a minute early so in-flight calls don't race expiry.
	c.tokenExp = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}
