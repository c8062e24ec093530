// Package httputil fetches remote wallpapers over HTTP with retries.
package httputil

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/breeze-rmm/dailywall/internal/logging"
)

var log = logging.L("httputil")

// RetryConfig controls how often and how patiently Get retries.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFrac    float64 // 0.3 spreads each wait over ±30%
}

// DefaultRetryConfig returns the defaults used for image downloads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
		JitterFrac:    0.3,
	}
}

// transient reports whether a response status is worth another attempt.
func transient(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusError is an HTTP response that did not deliver the image.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return "GET " + e.URL + ": " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

// Get issues a GET for url. Network errors and transient statuses are retried
// with exponential backoff; any other response is returned for the caller to
// inspect and close.
func Get(ctx context.Context, client *http.Client, url string, headers http.Header, cfg RetryConfig) (*http.Response, error) {
	b := backoff{cfg: cfg, next: cfg.InitialDelay}
	var lastErr error

	for attempt := range cfg.MaxRetries + 1 {
		if attempt > 0 {
			log.Debug("retrying download", "attempt", attempt, logging.KeySource, url)
			if err := b.wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := send(ctx, client, url, headers)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			lastErr = err
		case !transient(resp.StatusCode):
			return resp, nil
		default:
			b.atLeast(retryAfter(resp.Header.Get("Retry-After")))
			resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode, URL: url}
		}
	}

	log.Warn("download failed after retries",
		logging.KeySource, url,
		"attempts", cfg.MaxRetries+1,
		logging.KeyError, lastErr,
	)
	return nil, lastErr
}

func send(ctx context.Context, client *http.Client, url string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return client.Do(req)
}

type backoff struct {
	cfg  RetryConfig
	next time.Duration
}

// wait sleeps for the current delay, jittered, then grows it.
func (b *backoff) wait(ctx context.Context) error {
	d := b.next
	if f := b.cfg.JitterFrac; f > 0 {
		d = max(time.Duration(float64(d)*(1+f*(2*rand.Float64()-1))), 0)
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	b.next = min(time.Duration(float64(b.next)*b.cfg.BackoffFactor), b.cfg.MaxDelay)
	return nil
}

// atLeast raises the next delay to a server hint that stays within MaxDelay.
func (b *backoff) atLeast(hint time.Duration) {
	if hint > b.next && hint <= b.cfg.MaxDelay {
		b.next = hint
	}
}

// retryAfter parses the delay-seconds form of Retry-After.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
