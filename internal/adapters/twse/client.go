// Package twse fetches daily history and real-time quotes from the Taiwan
// Stock Exchange public endpoints.
package twse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"stockMonitor/internal/ports"
)

const (
	// Base URLs
	baseURLHistory = "https://www.twse.com.tw"
	baseURLQuote   = "https://mis.twse.com.tw"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	referer   = "https://mis.twse.com.tw/stock/fibest.jsp"

	// DefaultMaxMonths bounds the backwards month walk.
	DefaultMaxMonths = 24
	// DefaultRequestInterval paces history requests.
	DefaultRequestInterval = 300 * time.Millisecond
	// historySlack is the number of extra bars fetched beyond the requested depth.
	historySlack = 5
)

// Client implements ports.MarketData against TWSE.
type Client struct {
	http       *resty.Client
	historyURL string
	quoteURL   string
	limiter    *rate.Limiter
	maxMonths  int
	loc        *time.Location
	now        func() time.Time
	logger     ports.Logger
}

var _ ports.MarketData = (*Client)(nil)

// Config holds configuration specific to the TWSE adapter.
type Config struct {
	HistoryBaseURL  string        // defaults to https://www.twse.com.tw
	QuoteBaseURL    string        // defaults to https://mis.twse.com.tw
	Timeout         time.Duration // per request
	MaxMonths       int
	RequestInterval time.Duration
	Location        *time.Location // exchange time zone, decides the current month
	Now             func() time.Time
	Logger          ports.Logger
}

// New creates a new TWSE client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for TWSE client")
	}
	if cfg.HistoryBaseURL == "" {
		cfg.HistoryBaseURL = baseURLHistory
	}
	if cfg.QuoteBaseURL == "" {
		cfg.QuoteBaseURL = baseURLQuote
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxMonths <= 0 {
		cfg.MaxMonths = DefaultMaxMonths
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = DefaultRequestInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent)

	return &Client{
		http:       httpClient,
		historyURL: cfg.HistoryBaseURL,
		quoteURL:   cfg.QuoteBaseURL,
		limiter:    rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		maxMonths:  cfg.MaxMonths,
		loc:        cfg.Location,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}, nil
}

// Name returns the provider label.
func (c *Client) Name() string { return "twse" }

// handleError translates transport errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	var mappedErr error
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		mappedErr = ports.ErrTimeout
	default:
		mappedErr = ports.ErrTransport
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), map[string]interface{}{"operation": operation})
	return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
}

// checkStatus maps a non-2xx response to a ports error.
func checkStatus(resp *resty.Response, operation string) error {
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s failed: %w: HTTP %d", operation, ports.ErrRateLimited, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%s failed: %w: HTTP %d", operation, ports.ErrNotFound, code)
	default:
		return fmt.Errorf("%s failed: %w: HTTP %d", operation, ports.ErrTransport, code)
	}
}
