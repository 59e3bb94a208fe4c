package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"jdscraper/pkg/browser"
	errs "jdscraper/pkg/errors"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/session"
)

// maxMediaBytes caps a single download so a misbehaving CDN response
// cannot exhaust memory.
const maxMediaBytes = 64 << 20

// Client downloads media over plain HTTP. Every request carries the
// crawl's session cookies and a rotating desktop user agent, so the
// image CDN sees the same identity as the browser sessions.
type Client struct {
	httpClient *http.Client
	cookie     string
	referer    string
	logger     logger.Logger
}

// NewClient creates a media download client authorized by the given
// token set. The tokens are rendered to a header once; the set is
// read-only for the life of the crawl.
func NewClient(timeout time.Duration, tokens *session.TokenSet, referer string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cookie:  tokens.CookieHeader(),
		referer: referer,
		logger:  log,
	}
}

// Download fetches one media URL and returns its bytes. Failures come
// back classified as media fetch errors; callers skip them, they are
// never retried.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.NewMediaFetch(url, 0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", browser.RandomUserAgent())
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending media request", map[string]interface{}{
		"url": url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("media request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.NewMediaFetch(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnWithFields("media request returned a non-success status", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return nil, errs.NewMediaFetch(url, resp.StatusCode, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, errs.NewMediaFetch(url, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.DebugWithFields("media request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"bytes":    len(data),
		"duration": duration,
	})

	return data, nil
}
