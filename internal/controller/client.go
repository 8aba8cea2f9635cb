package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
)

var (
	// ErrUnexpectedStatus is wrapped when the controller answers with a non-success code.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrDecode is wrapped when a response body is not the expected JSON.
	ErrDecode = errors.New("malformed response")
)

// Client talks to the irrigation controller's HTTP endpoints.
type Client struct {
	base    *url.URL
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
	logs    *cache.Cache
	clk     clock.Clock
}

// NewClient creates a controller client. Logs of past dates are cached for
// cfg.LogCacheTTLSeconds since the controller never rewrites them.
func NewClient(cfg config.ControllerConfig, clk clock.Clock) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid controller url %q: %w", cfg.URL, err)
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Controller client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RateLimitPerSec)
	if cfg.RateLimitPerSec <= 0 {
		limit = rate.Inf
	}
	ttl := time.Duration(cfg.LogCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		base:    base,
		headers: cfg.Headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			// /action answers with a redirect to the home page; the redirect target is not needed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(limit, 1),
		logs:    cache.New(ttl, 2*ttl),
		clk:     clk,
	}, nil
}

// FetchLog fetches the runs of the given xs:date.
func (c *Client) FetchLog(ctx context.Context, date string) ([]LogEntry, error) {
	cacheable := date < clock.XSDate(c.clk.Now())
	key := "log:" + date
	if cacheable {
		if cached, found := c.logs.Get(key); found {
			return cached.([]LogEntry), nil
		}
	}

	var entries []LogEntry
	if err := c.getJSON(ctx, "/log.json", url.Values{"date": {date}}, &entries); err != nil {
		return nil, fmt.Errorf("fetch log for %s: %w", date, err)
	}

	if cacheable {
		c.logs.SetDefault(key, entries)
	}
	return entries, nil
}

// FetchStatus fetches the live status of every station.
func (c *Client) FetchStatus(ctx context.Context) ([]StationStatus, error) {
	var statuses []StationStatus
	if err := c.getJSON(ctx, "/status.json", nil, &statuses); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return statuses, nil
}

// Action sends a validated control action.
func (c *Client) Action(ctx context.Context, a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}

	resp, err := c.do(ctx, "/action", a.Query())
	if err != nil {
		return fmt.Errorf("send action: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send action: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	// Anything sent could change today's log.
	c.logs.Delete("log:" + clock.XSDate(c.clk.Now()))
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	return resp, nil
}
