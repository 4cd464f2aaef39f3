// Package fetcher talks to the third-party HTTP APIs commands read from.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/nanikabot/nanika/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UserAgent is sent with every request.
const UserAgent = "nanika (+https://github.com/nanikabot/nanika)"

// maxBodySize caps how much of a response is read.
const maxBodySize = 4 << 20

// ErrUnavailable is returned when an API answers with a non-2xx status.
var ErrUnavailable = errors.New("api unavailable")

// HTTPClient sends requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUnavailable, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}

// client does rate limited, retried GET requests against one API.
type client struct {
	http    HTTPClient
	baseURL string
	limiter *rate.Limiter
	retry   utils.RetryOptions
	cache   *responseCache
	logger  *zap.Logger
}

// Option configures a client.
type Option func(*client)

// WithRetryOptions replaces the retry policy.
func WithRetryOptions(opts utils.RetryOptions) Option {
	return func(c *client) {
		c.retry = opts
	}
}

// getJSON fetches baseURL+path and decodes the JSON body into T. Transport
// errors and 5xx responses are retried, other statuses fail at once. Cacheable
// responses are served from the response cache when one is configured.
func getJSON[T any](ctx context.Context, c *client, path string, query url.Values, cacheable bool) (T, error) {
	var result T

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	cache := c.cache
	if !cacheable {
		cache = nil
	}

	if cache != nil {
		if body, ok := cache.get(ctx, endpoint); ok {
			if err := sonic.Unmarshal(body, &result); err == nil {
				return result, nil
			}
		}
	}

	body, err := c.fetch(ctx, endpoint, "application/json")
	if err != nil {
		return result, err
	}

	if err := sonic.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if cache != nil {
		cache.set(ctx, endpoint, body)
	}

	return result, nil
}

// fetch reads endpoint with retries. Each attempt waits for the rate limiter.
func (c *client) fetch(ctx context.Context, endpoint, accept string) ([]byte, error) {
	attempt := 0

	return utils.WithRetry(ctx, func() ([]byte, error) {
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, utils.Permanent(err)
		}

		body, err := c.get(ctx, endpoint, accept)
		if err != nil {
			c.logger.Debug("Request failed",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}

		return body, err
	}, c.retry)
}

// get does a single request. Errors that retrying cannot fix are permanent.
func (c *client) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, utils.Permanent(err)
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, statusErr
		}
		return nil, utils.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
