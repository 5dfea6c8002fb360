package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

const quotePath = "/stock/api/getStockInfo.jsp"

type quoteResponse struct {
	MsgArray  []quoteMessage `json:"msgArray"`
	RtCode    string         `json:"rtcode"`
	RtMessage string         `json:"rtmessage"`
}

type quoteMessage struct {
	Code       string `json:"c"`
	Name       string `json:"n"`
	Last       string `json:"z"` // "-" when no trade yet
	PriorClose string `json:"y"`
	Volume     string `json:"v"` // lots
	Time       string `json:"t"`
	Bids       string `json:"b"` // "_"-separated best bids
}

// Quote fetches the real-time quote for a listed ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (*domain.Quote, error) {
	op := "Quote"
	fetchTime := c.now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", referer).
		SetQueryParams(map[string]string{
			"ex_ch": fmt.Sprintf("tse_%s.tw", ticker),
			"json":  "1",
			"delay": "0",
			"_":     strconv.FormatInt(fetchTime.UnixMilli(), 10),
		}).
		Get(c.quoteURL + quotePath)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if err := checkStatus(resp, op); err != nil {
		return nil, err
	}

	var body quoteResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrMalformedResponse, err)
	}
	if len(body.MsgArray) == 0 {
		return nil, fmt.Errorf("%s failed: %w: no quote for %s", op, ports.ErrEmptyResponse, ticker)
	}

	q, err := translateQuote(body.MsgArray[0], ticker)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrMalformedResponse, err)
	}
	q.FetchTime = fetchTime
	return q, nil
}

func translateQuote(m quoteMessage, ticker string) (*domain.Quote, error) {
	priorClose, err := decimal.NewFromString(strings.TrimSpace(m.PriorClose))
	if err != nil {
		return nil, fmt.Errorf("parsing prior close '%s': %w", m.PriorClose, err)
	}

	var lots int64
	if v := strings.TrimSpace(m.Volume); v != "" && v != "-" {
		lots, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing volume '%s': %w", m.Volume, err)
		}
	}

	return &domain.Quote{
		Ticker:           ticker,
		Name:             m.Name,
		Price:            lastPrice(m, priorClose),
		PriorClose:       priorClose,
		CumulativeVolume: lots * 1000,
		QuoteTime:        m.Time,
	}, nil
}

// lastPrice returns the last trade, falling back to the best bid and then to
// the prior close when nothing has traded.
func lastPrice(m quoteMessage, priorClose decimal.Decimal) decimal.Decimal {
	if p, ok := positivePrice(m.Last); ok {
		return p
	}
	if bid, ok := positivePrice(strings.Split(m.Bids, "_")[0]); ok {
		return bid
	}
	return priorClose
}

func positivePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(s)
	if err != nil || !p.IsPositive() {
		return decimal.Zero, false
	}
	return p, true
}
