package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"steamtracker/internal/config"
)

// Client talks to the public storefront API. It is read-only and
// unauthenticated; the only courtesy it owes the upstream is pacing,
// which the collectors own.
type Client struct {
	baseURL    string
	country    string
	httpc      *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func New(cfg config.SteamConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &Client{
		baseURL:    cfg.StoreBaseURL,
		country:    cfg.CountryCode,
		httpc:      &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// WithTransport swaps the underlying HTTP transport, used by tests.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.httpc.Transport = rt
}

// AppDetails fetches one app. A response with success=false (delisted or
// region-locked apps) returns (nil, nil) so callers can mark the app
// inactive instead of treating it as a transient failure.
func (c *Client) AppDetails(ctx context.Context, appID int64) (*AppDetails, error) {
	if appID <= 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("appids", strconv.FormatInt(appID, 10))
	if c.country != "" {
		q.Set("cc", c.country)
	}
	endpoint := c.baseURL + "/appdetails?" + q.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var envelope appDetailsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode appdetails %d: %w", appID, err)
	}
	entry, ok := envelope[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		return nil, nil
	}

	var data appDetailsData
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return nil, fmt.Errorf("decode appdetails data %d: %w", appID, err)
	}
	return data.normalize(appID), nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	attempts := c.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<(attempt-1))
			if c.logger != nil {
				c.logger.Debug("retrying storefront request",
					zap.String("url", endpoint),
					zap.Int("attempt", attempt),
					zap.Duration("delay", delay),
				)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.once(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, endpoint string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("storefront status %d", resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("storefront status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
