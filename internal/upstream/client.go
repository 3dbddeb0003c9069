// Package upstream is the typed client of the interview platform's REST API.
// Every endpoint category has one envelope; responses are unwrapped in one
// place and mapped onto the console's models and error kinds.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "http://localhost:5001/api"
	DefaultTimeout = 120 * time.Second

	maxResponseBytes = 32 << 20
)

// Client holds the connection settings shared by every admin.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// API is the upstream as seen by one signed-in admin.
type API struct {
	client    *Client
	creds     *Credentials
	authed    *http.Client
	refreshes singleflight.Group
}

// Bind returns an API that authenticates with creds. The bearer header is
// added by an oauth2.Transport reading creds on every request, so a refreshed
// token takes effect immediately.
func (c *Client) Bind(creds *Credentials) *API {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &API{
		client: c,
		creds:  creds,
		authed: &http.Client{
			Timeout:   c.http.Timeout,
			Transport: &oauth2.Transport{Source: creds, Base: base},
		},
	}
}

func (a *API) Credentials() *Credentials { return a.creds }

type call struct {
	endpoint    string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	public      bool
	noRetry     bool
}

func jsonCall(endpoint, method, path string, payload any) (call, error) {
	c := call{endpoint: endpoint, method: method, path: path}
	if payload == nil {
		return c, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return c, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}
	c.body = body
	c.contentType = "application/json"
	return c, nil
}

// do runs c and returns the response body of a successful call. A 401 on an
// authenticated call triggers one token refresh and one retry; login, logout
// and refresh-token are never retried. When the refresh or the retry fails
// the credentials are cleared and the admin has to sign in again.
func (a *API) do(ctx context.Context, c call) ([]byte, error) {
	body, status, err := a.send(ctx, c)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && !c.public && !c.noRetry && a.creds != nil {
		if err := a.refresh(ctx); err != nil {
			a.creds.Clear()
			return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, &apperr.AuthError{Status: http.StatusUnauthorized, Message: "session expired, please sign in again"})
		}
		body, status, err = a.send(ctx, c)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			a.creds.Clear()
		}
	}

	if status >= http.StatusBadRequest {
		return nil, statusError(status, messageOf(body))
	}
	return body, nil
}

// refresh collapses concurrent refreshes of one session into one upstream
// call.
func (a *API) refresh(ctx context.Context) error {
	_, err, _ := a.refreshes.Do("refresh", func() (any, error) {
		return a.RefreshToken(ctx)
	})
	return err
}

func (a *API) send(ctx context.Context, c call) ([]byte, int, error) {
	target := a.client.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	var reader io.Reader
	if c.body != nil {
		reader = bytes.NewReader(c.body)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build %s request: %w", c.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}

	httpClient := a.client.http
	if !c.public && a.authed != nil {
		httpClient = a.authed
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(c.endpoint, 0, time.Since(start))
		if errors.Is(err, ErrNoToken) {
			return nil, 0, &apperr.AuthError{Status: http.StatusUnauthorized, Message: "not signed in"}
		}
		return nil, 0, fmt.Errorf("failed to call %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.ObserveUpstream(c.endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read %s response: %w", c.endpoint, err)
	}

	a.client.logger.Debug("upstream call",
		"endpoint", c.endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return body, resp.StatusCode, nil
}

// anonymous is used for the calls made before an admin has a token.
func (c *Client) anonymous() *API {
	return &API{client: c}
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}

func escape(id string) string {
	return url.PathEscape(id)
}
