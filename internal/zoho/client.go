// Package zoho is a small client for the Zoho Books v3 REST API.
//
// Every request carries the firm's organization_id and a "Zoho-oauthtoken"
// authorization header obtained from the firm's refresh token. Calls are
// strictly sequential: list endpoints are walked page by page, and detail
// calls are paced by a limiter so the API's throttling is not triggered.
// HTTP 429, 502 and 503 are retried with Retry-After or exponential backoff.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"zbtools/internal/config"
	"zbtools/internal/logger"
)

// DefaultPerPage is the largest page size Zoho Books accepts.
const DefaultPerPage = 200

// RetryPolicy configures retries of throttled or unavailable responses.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		Base:       time.Second,
		Max:        30 * time.Second,
	}
}

// Delay returns how long to wait before retry number attempt+1. A Retry-After
// header (seconds or HTTP date) wins over the exponential schedule.
func (p RetryPolicy) Delay(attempt int, retryAfter string, now time.Time) time.Duration {
	if d, ok := parseRetryAfter(retryAfter, now); ok {
		return d
	}
	if attempt > 30 {
		return p.Max
	}
	d := p.Base << attempt
	if d <= 0 || d > p.Max {
		d = p.Max
	}
	return d
}

func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable
}

// Options configures a Client.
type Options struct {
	APIBase     string
	AccountsURL string
	Retry       RetryPolicy
	DetailDelay time.Duration
	PerPage     int
	HTTPClient  *http.Client

	// TokenSource overrides the refresh-token exchange, mainly for tests.
	TokenSource oauth2.TokenSource
}

// OptionsFromConfig builds client options from the application configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		APIBase:     cfg.APIBase,
		AccountsURL: cfg.AccountsURL,
		Retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Base:       cfg.RetryBase,
			Max:        cfg.RetryMax,
		},
		DetailDelay: cfg.DetailDelay,
		HTTPClient:  &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Client talks to the Zoho Books API on behalf of one firm.
type Client struct {
	httpClient *http.Client
	baseURL    string
	firm       config.FirmConfig
	tokens     oauth2.TokenSource
	retry      RetryPolicy
	detail     *rate.Limiter
	perPage    int
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	log        zerolog.Logger
}

// New creates a client for the given firm.
func New(ctx context.Context, opts Options, firm config.FirmConfig) (*Client, error) {
	const op = "New"

	if opts.APIBase == "" {
		return nil, fmt.Errorf("%s: API base URL is required", op)
	}
	if _, err := url.Parse(opts.APIBase); err != nil {
		return nil, fmt.Errorf("%s: invalid API base URL: %w", op, err)
	}
	if firm.OrgID == "" {
		return nil, fmt.Errorf("%s: firm %s has no organization id", op, firm.Code)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}

	tokens := opts.TokenSource
	if tokens == nil {
		ts, err := TokenSource(ctx, opts.AccountsURL, firm, hc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tokens = ts
	}

	retry := opts.Retry
	if retry.Base <= 0 || retry.Max <= 0 {
		def := DefaultRetryPolicy()
		retry.Base, retry.Max = def.Base, def.Max
	}

	limit := rate.Inf
	if opts.DetailDelay > 0 {
		limit = rate.Every(opts.DetailDelay)
	}

	perPage := opts.PerPage
	if perPage <= 0 || perPage > DefaultPerPage {
		perPage = DefaultPerPage
	}

	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(opts.APIBase, "/"),
		firm:       firm,
		tokens:     tokens,
		retry:      retry,
		detail:     rate.NewLimiter(limit, 1),
		perPage:    perPage,
		now:        time.Now,
		sleep:      sleepContext,
		log:        logger.WithFirm("zoho", firm.Code),
	}, nil
}

// Firm returns the firm this client works for.
func (c *Client) Firm() config.FirmConfig {
	return c.firm
}

// request describes a single API call.
type request struct {
	op      string
	method  string
	path    string
	params  url.Values
	body    any
	accept  string
	noRetry bool
}

// envelope is the common part of every Zoho Books JSON response.
type envelope struct {
	Code        int         `json:"code"`
	Message     string      `json:"message"`
	PageContext pageContext `json:"page_context"`
}

type pageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}

// call performs req, retrying throttled responses, and returns the raw body of
// a successful response.
func (c *Client) call(ctx context.Context, req request) ([]byte, error) {
	var payload []byte
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, &APIError{Op: req.op, Resource: req.path, Err: fmt.Errorf("marshal body: %w", err)}
		}
		payload = data
	}

	for attempt := 0; ; attempt++ {
		status, header, body, err := c.roundTrip(ctx, req, payload)
		if err != nil {
			return nil, &APIError{Op: req.op, Resource: req.path, Err: err}
		}
		if status >= 200 && status < 300 {
			return body, nil
		}

		apiErr := &APIError{
			Op:         req.op,
			Resource:   req.path,
			StatusCode: status,
			Body:       truncate(body),
			Err:        statusError(status),
		}
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Message != "" {
			apiErr.Code, apiErr.Message = env.Code, env.Message
		}

		if req.noRetry || !retryable(status) {
			return nil, apiErr
		}
		if attempt >= c.retry.MaxRetries {
			apiErr.Err = ErrRetriesExhausted
			return nil, apiErr
		}

		wait := c.retry.Delay(attempt, header.Get("Retry-After"), c.now())
		c.log.Warn().
			Str("op", req.op).
			Str("resource", req.path).
			Int("status", status).
			Int("attempt", attempt+1).
			Int("max_retries", c.retry.MaxRetries).
			Dur("wait", wait).
			Msg("Zoho request throttled, retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, &APIError{Op: req.op, Resource: req.path, StatusCode: status, Err: err}
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, req request, payload []byte) (int, http.Header, []byte, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(req.path, "/"))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build url: %w", err)
	}
	q := url.Values{}
	for k, v := range req.params {
		q[k] = v
	}
	q.Set("organization_id", c.firm.OrgID)
	u.RawQuery = q.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return 0, nil, nil, fmt.Errorf("obtain access token: %w", err)
	}
	httpReq.Header.Set("Authorization", "Zoho-oauthtoken "+token.AccessToken)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Debug().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Str("method", req.method).
		Str("resource", req.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Zoho request completed")

	return resp.StatusCode, resp.Header, data, nil
}

// getJSON performs a GET and decodes the value stored under key into dest.
func (c *Client) getJSON(ctx context.Context, req request, key string, dest any) (pageContext, error) {
	req.method = http.MethodGet
	body, err := c.call(ctx, req)
	if err != nil {
		return pageContext{}, err
	}
	return decodeEnvelope(req, body, key, dest)
}

func decodeEnvelope(req request, body []byte, key string, dest any) (pageContext, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return pageContext{}, &APIError{Op: req.op, Resource: req.path, StatusCode: http.StatusOK, Body: truncate(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.Code != 0 {
		return pageContext{}, &APIError{Op: req.op, Resource: req.path, StatusCode: http.StatusOK, Code: env.Code, Message: env.Message, Err: ErrAPI}
	}
	if key == "" || dest == nil {
		return env.PageContext, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return pageContext{}, &APIError{Op: req.op, Resource: req.path, StatusCode: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return env.PageContext, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pageContext{}, &APIError{Op: req.op, Resource: req.path, StatusCode: http.StatusOK, Err: fmt.Errorf("decode %q: %w", key, err)}
	}
	return env.PageContext, nil
}

// waitDetail paces per-record detail calls.
func (c *Client) waitDetail(ctx context.Context) error {
	return c.detail.Wait(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
