// Package ghl is a typed client for the GoHighLevel (LeadConnector) REST API v2.
package ghl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://services.leadconnectorhq.com"
	DefaultAPIVersion = "2021-07-28"

	tagCacheSize = 1024
	tagCacheTTL  = 10 * time.Minute
)

// Options configure a Client
type Options struct {
	BaseURL      string
	APIVersion   string
	Token        string
	LocationID   string
	Timeout      time.Duration
	RateLimit    float64
	RateBurst    int
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// Client talks to one GHL location
type Client struct {
	http       *resty.Client
	locationID string
	logger     *zap.Logger

	tagMu sync.Mutex
	tags  *expirable.LRU[string, Tag]
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.APIVersion == "" {
		o.APIVersion = DefaultAPIVersion
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 10
	}
	return o
}

// NewClient creates a new GHL client
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("ghl api key is required")
	}
	if opts.LocationID == "" {
		return nil, errors.New("ghl location id is required")
	}
	opts = opts.withDefaults()

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetAuthToken(opts.Token)
	httpClient.SetHeader("Version", opts.APIVersion)
	httpClient.SetHeader("Accept", "application/json")
	httpClient.SetHeader("Content-Type", "application/json")

	// Runs before every attempt, retries included
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	if opts.RetryCount > 0 {
		httpClient.SetRetryCount(opts.RetryCount)
		if opts.RetryWait > 0 {
			httpClient.SetRetryWaitTime(opts.RetryWait)
		}
		if opts.RetryMaxWait > 0 {
			httpClient.SetRetryMaxWaitTime(opts.RetryMaxWait)
		}
		httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
			if res == nil {
				return false
			}
			if err != nil {
				return true
			}
			status := res.StatusCode()
			return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
		})
		httpClient.AddRetryHook(func(res *resty.Response, err error) {
			if res == nil || res.Request == nil {
				return
			}
			logger.Warn("Retrying GHL request",
				zap.String("method", res.Request.Method),
				zap.String("url", res.Request.URL),
				zap.Int("status", res.StatusCode()),
				zap.Error(err))
		})
	}

	return &Client{
		http:       httpClient,
		locationID: opts.LocationID,
		logger:     logger,
		tags:       expirable.NewLRU[string, Tag](tagCacheSize, nil, tagCacheTTL),
	}, nil
}

// LocationID returns the location every request is scoped to
func (c *Client) LocationID() string {
	return c.locationID
}

// do executes a request and decodes a JSON response body into out when set
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	res, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	c.logger.Debug("GHL request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode()),
		zap.Duration("duration", time.Since(start)))

	if res.IsError() {
		return newAPIError(method, path, res.StatusCode(), res.Body())
	}
	if out != nil && len(res.Body()) > 0 {
		if err := json.Unmarshal(res.Body(), out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}
