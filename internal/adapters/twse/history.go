package twse

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

const historyPath = "/rwd/zh/afterTrading/STOCK_DAY"

// Column layout of the STOCK_DAY table.
const (
	colDate   = 0
	colVolume = 1
	colClose  = 6
	minCols   = 9
)

// DailyBars walks month pages backwards from the current month until
// minDays plus a small slack of bars is collected or MaxMonths pages were read.
// If a page fails after earlier pages succeeded, the bars collected so far
// are returned without error.
func (c *Client) DailyBars(ctx context.Context, ticker string, minDays int) ([]domain.DailyBar, error) {
	op := "DailyBars"
	now := c.now().In(c.loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
	target := minDays + historySlack

	var bars []domain.DailyBar
	months := 0
	for ; months < c.maxMonths && len(bars) < target; months++ {
		monthBars, err := c.fetchMonth(ctx, ticker, month)
		if err != nil {
			if len(bars) == 0 || ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn(ctx, "History walk stopped early, returning partial bars", map[string]interface{}{
				"ticker": ticker, "month": month.Format("2006-01"), "bars": len(bars), "error": err.Error(),
			})
			break
		}
		bars = append(monthBars, bars...)
		month = month.AddDate(0, -1, 0)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s failed: %w: no daily bars for %s in %d months", op, ports.ErrEmptyResponse, ticker, months)
	}
	c.logger.Debug(ctx, "Fetched daily history", map[string]interface{}{"ticker": ticker, "bars": len(bars), "months": months})
	return bars, nil
}

func (c *Client) fetchMonth(ctx context.Context, ticker string, month time.Time) ([]domain.DailyBar, error) {
	op := "FetchHistoryMonth"
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"date":     month.Format("20060102"),
			"stockNo":  ticker,
			"response": "html",
		}).
		Get(c.historyURL + historyPath)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if err := checkStatus(resp, op); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrMalformedResponse, err)
	}
	return parseMonthTable(doc, c.loc), nil
}

// parseMonthTable reads the first table of a STOCK_DAY page. Rows with fewer
// than nine cells or a non-numeric close or volume are skipped.
func parseMonthTable(doc *goquery.Document, loc *time.Location) []domain.DailyBar {
	var bars []domain.DailyBar
	doc.Find("table").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minCols {
			return
		}
		cols := cells.Map(func(_ int, s *goquery.Selection) string {
			return strings.TrimSpace(s.Text())
		})

		closePrice, err := decimal.NewFromString(stripCommas(cols[colClose]))
		if err != nil {
			return
		}
		volume, err := strconv.ParseInt(stripCommas(cols[colVolume]), 10, 64)
		if err != nil {
			return
		}
		date, _ := parseROCDate(cols[colDate], loc)
		bars = append(bars, domain.DailyBar{Date: date, Close: closePrice, Volume: volume})
	})
	return bars
}

// parseROCDate parses a Minguo calendar date such as "115/10/16".
func parseROCDate(s string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ROC date %q: %w", s, err)
		}
		nums[i] = n
	}
	return time.Date(nums[0]+1911, time.Month(nums[1]), nums[2], 0, 0, 0, 0, loc), nil
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
