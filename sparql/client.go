package sparql

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/graphdash/sparqlkit/gate"
	"github.com/graphdash/sparqlkit/instance"
)

const resultsContentType = "application/sparql-results+json"

// maxErrorBody bounds how much of an error response is read before the
// connection is dropped.
const maxErrorBody = 8 << 10

// Config configures a Client.
type Config struct {
	// Instance is the endpoint this client talks to.
	Instance instance.Instance

	// Gate bounds concurrent requests against the endpoint. If nil, a
	// gate sized from the instance rate limit is created.
	Gate *gate.Gate

	// HTTPClient overrides the default client. The default carries the
	// instance timeout and, for cookie-authenticated instances, a
	// cookie jar.
	HTTPClient *http.Client

	// Logger receives retry activity at Debug level. Default: zap.NewNop()
	Logger *zap.Logger

	// OnRetry is called before each retry backoff wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Client executes SPARQL queries against one endpoint with failure
// classification and linear-backoff retries.
type Client struct {
	inst    instance.Instance
	gate    *gate.Gate
	http    *http.Client
	logger  *zap.Logger
	onRetry func(attempt int, err error, delay time.Duration)
}

// New creates a client for the configured instance.
func New(cfg Config) *Client {
	inst := cfg.Instance.Normalize()
	g := cfg.Gate
	if g == nil {
		g = gate.New(inst.RateLimit.Concurrent)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: inst.Timeout}
		if inst.CookieAuth {
			// cookiejar.New never fails with nil options.
			jar, _ := cookiejar.New(nil)
			hc.Jar = jar
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		inst:    inst,
		gate:    g,
		http:    hc,
		logger:  logger,
		onRetry: cfg.OnRetry,
	}
}

// Gate returns the concurrency gate this client admits requests through.
func (c *Client) Gate() *gate.Gate { return c.gate }

// Instance returns the endpoint configuration the client was built from.
func (c *Client) Instance() instance.Instance { return c.inst }

// Execute runs one query and returns the raw results document. Transient
// failures (network, rate limited, 5xx) are retried up to the configured
// budget with delay attempt*RetryDelay between attempts; all other
// failures are terminal. An instance that requires authentication
// without a cookie mechanism fails before any network activity.
func (c *Client) Execute(ctx context.Context, queryText string) ([]byte, error) {
	if c.inst.RequiresAuth && !c.inst.CookieAuth {
		return nil, ErrNoCredentialMechanism
	}

	attempts := c.inst.Retries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		payload, err := c.attempt(ctx, queryText)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
		if attempt >= attempts {
			break
		}

		delay := time.Duration(attempt) * c.inst.RetryDelay
		if c.onRetry != nil {
			c.onRetry(attempt, err, delay)
		}
		c.logger.Debug("sparql: retrying after transient failure",
			zap.String("instance", c.inst.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// attempt performs one gated network attempt. The gate slot is released
// when the attempt settles, before the caller decides about backoff.
func (c *Client) attempt(ctx context.Context, queryText string) ([]byte, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.gate.Release()

	form := url.Values{"query": {queryText}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inst.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, networkError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", resultsContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		authURL := ""
		if c.inst.CookieAuth {
			authURL = c.inst.AuthURL
		}
		return nil, classify(resp.StatusCode, authURL)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	return payload, nil
}
