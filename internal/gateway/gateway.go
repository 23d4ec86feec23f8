// Package gateway is the single chokepoint for all outbound CRM API calls.
// It injects bearer tokens, classifies failures, and runs the session
// refresh protocol when an access token expires mid-flight.
package gateway

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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"admitcrm/internal/crm"
	"admitcrm/internal/platform/config"
	"admitcrm/internal/platform/metrics"
	"admitcrm/internal/session"
	"admitcrm/pkg/apierror"
)

// Client wraps outbound calls to the REST API. All resource services go
// through it; nothing else talks to the network.
type Client struct {
	baseURL  string
	http     *http.Client
	keyring  session.Keyring
	log      *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	refresh  singleflight.Group
	onLogout func()
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client; tests use this together
// with httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogoutHandler sets the hook invoked after an unrecoverable refresh
// failure clears the session. It is the headless analog of forcing the
// browser back to the login page.
func WithLogoutHandler(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// WithTracer injects a custom OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// New builds a gateway client for the configured API endpoint.
func New(cfg config.Client, keyring session.Keyring, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		keyring: keyring,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("admitcrm/gateway")
	}
	if c.onLogout == nil {
		c.onLogout = func() {}
	}
	return c
}

// errNoRefreshToken marks the refresh path that never reached the server.
var errNoRefreshToken = errors.New("no refresh token")

// refreshResponse is the /auth/refresh success envelope.
type refreshResponse struct {
	AccessToken string   `json:"access_token"`
	User        crm.User `json:"user"`
}

// Do issues one API call. Body (when non-nil) is sent as JSON; a successful
// response is decoded into out (when non-nil). A 401 on a not-yet-retried
// request triggers the refresh protocol and, on success, exactly one replay.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "gateway.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	start := time.Now()

	err := c.doOnce(ctx, method, path, query, body, out)
	if apierror.HasCode(err, apierror.CodeUnauthorized) {
		// Authorization expiry. Refresh once, then replay the original
		// request once with the new token; a second 401 propagates.
		if refreshErr := c.refreshSession(ctx); refreshErr != nil {
			// With no refresh token to try, the original error is the one
			// the caller should see.
			if errors.Is(refreshErr, errNoRefreshToken) {
				refreshErr = err
			}
			c.observe(method, refreshErr, time.Since(start))
			span.RecordError(refreshErr)
			span.SetStatus(codes.Error, refreshErr.Error())
			span.End()
			return refreshErr
		}
		err = c.doOnce(ctx, method, path, query, body, out)
	}

	c.observe(method, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apierror.Wrap(err, apierror.CodeValidation, "invalid request body")
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apierror.Wrap(err, apierror.CodeUnknown, "invalid request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.keyring.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// No underlying transport response at all.
		c.log.Error("network error", "method", method, "path", path, "error", err)
		return apierror.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.Network(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := apierror.FromResponse(resp.StatusCode, raw, "request failed")
		if resp.StatusCode == http.StatusForbidden {
			// Authorization denial, not expiry: never refreshed, never
			// retried. The access-control layer should have pre-filtered
			// most of these.
			c.log.Error("access denied", "method", method, "path", path)
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apierror.Wrap(err, apierror.CodeUnknown, "malformed response body")
		}
	}
	return nil
}

// refreshSession runs the refresh protocol. Concurrent expiries collapse
// into one refresh call; every waiter observes the same outcome. On any
// failure the session is cleared and the logout hook fires.
func (c *Client) refreshSession(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refreshToken := c.keyring.RefreshToken()
		if refreshToken == "" {
			return nil, errNoRefreshToken
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", nil)
		if err != nil {
			return nil, apierror.Wrap(err, apierror.CodeUnknown, "invalid refresh request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+refreshToken)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apierror.Network(err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apierror.Network(err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, apierror.FromResponse(resp.StatusCode, raw, "session refresh failed")
		}

		var payload refreshResponse
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, apierror.Wrap(err, apierror.CodeUnknown, "malformed refresh response")
		}
		if err := c.keyring.SetTokens(payload.AccessToken, refreshToken); err != nil {
			return nil, fmt.Errorf("persisting refreshed tokens: %w", err)
		}
		if err := c.keyring.SetUser(&payload.User); err != nil {
			return nil, fmt.Errorf("persisting refreshed profile: %w", err)
		}
		return nil, nil
	})

	if err != nil {
		// Unrecoverable: clear the session and force the caller back to
		// the login entry point. The error still propagates so the caller
		// can react before the redirect analog completes.
		c.log.Warn("session refresh failed, clearing tokens", "error", err)
		if clearErr := c.keyring.Clear(); clearErr != nil {
			c.log.Error("clearing keyring", "error", clearErr)
		}
		if c.metrics != nil {
			c.metrics.IncrementTokenRefreshes("failure")
			c.metrics.IncrementSessionsCleared()
		}
		c.onLogout()
		return err
	}

	c.log.Info("session refreshed")
	if c.metrics != nil {
		c.metrics.IncrementTokenRefreshes("success")
	}
	return nil
}

func (c *Client) observe(method string, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveRequest(method, statusClass(err), elapsed.Seconds())
}

func statusClass(err error) string {
	if err == nil {
		return "2xx"
	}
	status := apierror.StatusOf(err)
	switch {
	case status == 0:
		return "network"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}
