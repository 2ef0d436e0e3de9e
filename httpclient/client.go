package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/s0up4200/dexbrowse/connectivity"
	"github.com/s0up4200/dexbrowse/metrics"
)

const (
	DefaultTimeout       = 8 * time.Second
	DefaultMaxAttempts   = 3
	DefaultBackoffBase   = time.Second
	DefaultBackoffJitter = time.Second
)

// Client issues JSON GET requests with a per-attempt timeout, bounded retries
// and an offline fail-fast check.
type Client struct {
	httpClient    *http.Client
	oracle        connectivity.Oracle
	logger        zerolog.Logger
	timeout       time.Duration
	maxAttempts   int
	backoffBase   time.Duration
	backoffJitter time.Duration
	userAgent     string
	limiter       *rate.Limiter
	metrics       *metrics.Metrics

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// New creates a new Client
func New(oracle connectivity.Oracle, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		// Deadlines are applied per attempt through the request context
		httpClient:    &http.Client{},
		oracle:        oracle,
		logger:        logger,
		timeout:       DefaultTimeout,
		maxAttempts:   DefaultMaxAttempts,
		backoffBase:   DefaultBackoffBase,
		backoffJitter: DefaultBackoffJitter,
		userAgent:     "dexbrowse",
		sleep:         sleepContext,
		jitter:        randomJitter,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Backoff returns the delay before the retry that follows the given failed
// attempt: base * 2^(attempt-1) + random(0, jitter).
func (c *Client) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := c.backoffBase << (attempt - 1)
	return delay + c.jitter(c.backoffJitter)
}

// Get decodes the JSON body at url into out
func (c *Client) Get(ctx context.Context, url string, out any) error {
	requestID := uuid.NewString()
	log := c.logger.With().Str("url", url).Str("request_id", requestID).Logger()

	for attempt := 1; ; attempt++ {
		if c.oracle != nil && c.oracle.IsOffline() {
			c.observe(KindOffline, 0)
			return &Error{Kind: KindOffline, URL: url}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return &Error{Kind: KindCancelled, URL: url, Err: err}
			}
		}

		start := time.Now()
		err := c.attempt(ctx, url, requestID, out)
		if err == nil {
			c.observe(-1, time.Since(start))
			return nil
		}

		kind := KindOf(err)
		c.observe(kind, time.Since(start))

		if !kind.Retryable() || attempt >= c.maxAttempts {
			if kind != KindCancelled {
				log.Debug().Err(err).Int("attempt", attempt).Msg("Request failed")
			}
			return err
		}

		delay := c.Backoff(attempt)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Retrying request")
		if c.metrics != nil {
			c.metrics.HTTPRetries.Inc()
		}

		if err := c.sleep(ctx, delay); err != nil {
			return &Error{Kind: KindCancelled, URL: url, Err: err}
		}
	}
}

// attempt performs exactly one bounded network call
func (c *Client) attempt(ctx context.Context, url, requestID string, out any) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindCancelled, URL: url, Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Kind: KindClient, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, attemptCtx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &Error{Kind: kindForStatus(resp.StatusCode), URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := c.classifyContext(ctx, attemptCtx, url); ctxErr != nil {
			return ctxErr
		}
		return &Error{Kind: KindServer, URL: url, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

// classifyTransport separates caller cancellation from the attempt deadline,
// and both from an unreachable host.
func (c *Client) classifyTransport(parent, attemptCtx context.Context, url string, err error) error {
	if ctxErr := c.classifyContext(parent, attemptCtx, url); ctxErr != nil {
		return ctxErr
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: url, Err: err}
	}
	return &Error{Kind: KindOffline, URL: url, Err: err}
}

func (c *Client) classifyContext(parent, attemptCtx context.Context, url string) error {
	if err := parent.Err(); err != nil {
		return &Error{Kind: KindCancelled, URL: url, Err: err}
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, URL: url, Err: attemptCtx.Err()}
	}
	return nil
}

// observe records an attempt outcome; kind -1 marks success
func (c *Client) observe(kind Kind, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if kind >= 0 {
		outcome = kind.String()
	}
	c.metrics.HTTPAttempts.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		c.metrics.HTTPDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	}
}

// Fetch is the typed form of Client.Get
func Fetch[T any](ctx context.Context, c *Client, url string) (T, error) {
	var out T
	if err := c.Get(ctx, url, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
