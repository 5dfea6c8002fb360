package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	dailyInterval = "1d"
	// historySlack covers the dropped in-progress kline plus a small margin.
	historySlack = 6
	// maxKlineLimit is the largest page the klines endpoint serves.
	maxKlineLimit = 1500
)

// Client implements ports.MarketData using USD-M futures daily klines.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	now           func() time.Time
}

var _ ports.MarketData = (*Client)(nil)

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // overrides the production/testnet URL when set
	Logger     ports.Logger
	Now        func() time.Time
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Only public market data endpoints are used.")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL, "testnet": cfg.UseTestnet})

	return &Client{futuresClient: client, logger: cfg.Logger, now: cfg.Now}, nil
}

// Name returns the provider label.
func (c *Client) Name() string { return "binance" }

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Signature or API-key rejected
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTransport, err)
	} else {
		// Default for other errors (e.g., parsing errors within the adapter)
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks connectivity to the futures API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// DailyBars returns closed daily klines as bars. The in-progress kline for
// the current UTC day is dropped.
func (c *Client) DailyBars(ctx context.Context, ticker string, minDays int) ([]domain.DailyBar, error) {
	op := "DailyBars"
	limit := minDays + historySlack
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	klines, err := c.futuresClient.NewKlinesService().Symbol(ticker).Interval(dailyInterval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	now := c.now()
	bars := make([]domain.DailyBar, 0, len(klines))
	for _, bk := range klines {
		if time.UnixMilli(bk.CloseTime).After(now) {
			continue
		}
		bar, err := translateBinanceKline(bk)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrMalformedResponse, err)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s failed: %w: no closed daily klines for %s", op, ports.ErrEmptyResponse, ticker)
	}
	return bars, nil
}

// Quote derives a quote from the last two daily klines: the previous close is
// the prior close and the current kline carries price and volume so far.
func (c *Client) Quote(ctx context.Context, ticker string) (*domain.Quote, error) {
	op := "Quote"
	fetchTime := c.now()

	klines, err := c.futuresClient.NewKlinesService().Symbol(ticker).Interval(dailyInterval).Limit(2).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(klines) < 2 {
		return nil, fmt.Errorf("%s failed: %w: need two daily klines for %s, got %d", op, ports.ErrEmptyResponse, ticker, len(klines))
	}

	prior, err := translateBinanceKline(klines[0])
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrMalformedResponse, err)
	}
	current, err := translateBinanceKline(klines[1])
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrMalformedResponse, err)
	}

	return &domain.Quote{
		Ticker:           ticker,
		Name:             ticker,
		Price:            current.Close,
		PriorClose:       prior.Close,
		CumulativeVolume: current.Volume,
		QuoteTime:        fetchTime.UTC().Format("15:04:05"),
		FetchTime:        fetchTime,
	}, nil
}

// translateBinanceKline converts a kline into a bar; volume is rounded to
// whole base-asset units.
func translateBinanceKline(bk *futures.Kline) (domain.DailyBar, error) {
	if bk == nil {
		return domain.DailyBar{}, errors.New("received nil historical kline")
	}
	cls, err := decimal.NewFromString(bk.Close)
	if err != nil {
		return domain.DailyBar{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := decimal.NewFromString(bk.Volume)
	if err != nil {
		return domain.DailyBar{}, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}
	return domain.DailyBar{
		Date:   time.UnixMilli(bk.OpenTime).UTC(),
		Close:  cls,
		Volume: vol.Round(0).IntPart(),
	}, nil
}
