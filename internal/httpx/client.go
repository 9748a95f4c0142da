package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client is an HTTP client with rate limiting and retries.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	userAgent       string
	maxRetries      uint64
	initialBackoff  time.Duration
	maxRetryTimeout time.Duration
	logger          zerolog.Logger
}

// Options holds options for creating a new Client.
type Options struct {
	Timeout         time.Duration
	RequestsPerSec  float64
	Burst           int
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxRetryTimeout time.Duration
	ProxyURL        string
	UserAgent       string
	Logger          zerolog.Logger
}

// NewClient creates a new Client. Zero options fall back to defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		u, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &Client{
		HTTPClient:      &http.Client{Timeout: opts.Timeout, Transport: transport},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		userAgent:       opts.UserAgent,
		maxRetries:      uint64(opts.MaxRetries),
		initialBackoff:  opts.InitialBackoff,
		maxRetryTimeout: opts.MaxRetryTimeout,
		logger:          opts.Logger,
	}, nil
}

// Do performs req with rate limiting and exponential backoff. Transport errors,
// 5xx and 429 are retried; any other non-2xx status fails at once with *StatusError.
// The caller must close the returned body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var resp *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if r.StatusCode < 200 || r.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
			r.Body.Close()
			statusErr := &StatusError{StatusCode: r.StatusCode, URL: redact(req.URL), Body: string(body)}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxElapsedTime = c.maxRetryTimeout
	notify := func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Str("host", req.URL.Host).Msg("request failed, retrying")
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx), notify)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON issues a GET to rawURL and decodes the JSON body into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", redact(req.URL), err)
	}
	return nil
}

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err carries a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// redact drops query credentials from u for logs and errors.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	for _, k := range []string{"apikey", "api_key", "token"} {
		if q.Has(k) {
			q.Set(k, "xxx")
		}
	}
	c.RawQuery = q.Encode()
	return c.String()
}
