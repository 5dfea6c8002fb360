// Package yahoo serves history and quotes from Yahoo Finance through
// piquette/finance-go.
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// DefaultSuffix maps bare TWSE codes onto Yahoo symbols ("2330" -> "2330.TW").
const DefaultSuffix = ".TW"

type (
	quoteFunc func(symbol string) (*finance.Quote, error)
	chartFunc func(params *chart.Params) ([]*finance.ChartBar, error)
)

// Client implements ports.MarketData using Yahoo Finance.
type Client struct {
	suffix   string
	now      func() time.Time
	logger   ports.Logger
	getQuote quoteFunc
	getBars  chartFunc
}

var _ ports.MarketData = (*Client)(nil)

// Config holds configuration specific to the Yahoo adapter.
type Config struct {
	Suffix string // appended to tickers without a dot
	Now    func() time.Time
	Logger ports.Logger
}

// New creates a new Yahoo Finance adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultSuffix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{
		suffix:   cfg.Suffix,
		now:      cfg.Now,
		logger:   cfg.Logger,
		getQuote: quote.Get,
		getBars:  collectChart,
	}, nil
}

// Name returns the provider label.
func (c *Client) Name() string { return "yahoo" }

// Symbol maps a ticker onto its Yahoo symbol.
func (c *Client) Symbol(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + c.suffix
}

func collectChart(params *chart.Params) ([]*finance.ChartBar, error) {
	iter := chart.Get(params)
	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// DailyBars requests enough calendar days of daily bars to cover minDays
// trading days plus holidays.
func (c *Client) DailyBars(ctx context.Context, ticker string, minDays int) ([]domain.DailyBar, error) {
	op := "DailyBars"
	end := c.now()
	start := end.AddDate(0, 0, -(minDays*7/5 + 30))
	params := &chart.Params{
		Symbol:   c.Symbol(ticker),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	raw, err := call(ctx, func() ([]*finance.ChartBar, error) { return c.getBars(params) })
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	bars := make([]domain.DailyBar, 0, len(raw))
	for _, b := range raw {
		if b == nil || !b.Close.IsPositive() {
			continue // Yahoo emits null rows for halted days
		}
		bars = append(bars, domain.DailyBar{
			Date:   time.Unix(int64(b.Timestamp), 0),
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s failed: %w: no daily bars for %s", op, ports.ErrEmptyResponse, params.Symbol)
	}
	return bars, nil
}

// Quote fetches the regular-market quote.
func (c *Client) Quote(ctx context.Context, ticker string) (*domain.Quote, error) {
	op := "Quote"
	symbol := c.Symbol(ticker)
	fetchTime := c.now()

	q, err := call(ctx, func() (*finance.Quote, error) { return c.getQuote(symbol) })
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if q == nil {
		return nil, fmt.Errorf("%s failed: %w: no quote for %s", op, ports.ErrEmptyResponse, symbol)
	}

	name := q.ShortName
	if name == "" {
		name = symbol
	}
	quoteTime := ""
	if q.RegularMarketTime > 0 {
		quoteTime = time.Unix(int64(q.RegularMarketTime), 0).In(fetchTime.Location()).Format("15:04:05")
	}
	return &domain.Quote{
		Ticker:           ticker,
		Name:             name,
		Price:            decimal.NewFromFloat(q.RegularMarketPrice),
		PriorClose:       decimal.NewFromFloat(q.RegularMarketPreviousClose),
		CumulativeVolume: int64(q.RegularMarketVolume),
		QuoteTime:        quoteTime,
		FetchTime:        fetchTime,
	}, nil
}

// call runs a blocking library call and gives up when ctx is done. The
// library has no context support, so an abandoned call finishes in the background.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

// handleError translates finance-go errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	var mappedErr error
	switch {
	case ctx.Err() == context.Canceled:
		mappedErr = ports.ErrContextCanceled
	case ctx.Err() == context.DeadlineExceeded:
		mappedErr = ports.ErrTimeout
	default:
		mappedErr = ports.ErrTransport
	}
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), map[string]interface{}{"operation": operation})
	return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
}
