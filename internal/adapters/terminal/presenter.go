// Package terminal renders snapshots as a refreshing table on a terminal.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

const clearSequence = "\033[2J\033[H"

// Column indexes of the quote table.
const (
	colCode = iota
	colName
	colPrice
	colChange
	colVsMA
	colShortMA
	colShortDays
	colLongMA
	colLongDays
	colLots
	colRatio
	colAvgLots
	colEstimate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Align(lipgloss.Center)

	cellStyle = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)

	upStyle   = cellStyle.Foreground(lipgloss.Color("#FF3333"))
	downStyle = cellStyle.Foreground(lipgloss.Color("#00FF00"))

	columnStyles = map[int]lipgloss.Style{
		colLots:     cellStyle.Foreground(lipgloss.Color("#00D2FF")),
		colRatio:    cellStyle.Foreground(lipgloss.Color("#FF00FF")),
		colAvgLots:  cellStyle.Foreground(lipgloss.Color("#BBBBBB")),
		colEstimate: cellStyle.Foreground(lipgloss.Color("#FFA500")),
	}

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Padding(0, 1)
)

// Presenter implements ports.Presenter for a terminal.
type Presenter struct {
	mu    sync.Mutex
	out   io.Writer
	clear bool
	loc   *time.Location
}

var _ ports.Presenter = (*Presenter)(nil)

// Config configures the terminal presenter.
type Config struct {
	Out         io.Writer // defaults to os.Stdout
	ClearScreen bool
	Location    *time.Location // zone for the "last updated" stamp
}

// New creates a terminal presenter.
func New(cfg Config) *Presenter {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Presenter{out: cfg.Out, clear: cfg.ClearScreen, loc: cfg.Location}
}

// Render redraws the view for snap.
func (p *Presenter) Render(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot: %w", ports.ErrInvalidRequest)
	}
	view := Format(snap, p.loc)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clear {
		view = clearSequence + view
	}
	_, err := io.WriteString(p.out, view)
	return err
}

// Format builds the full view: title, table or pending banner, footer.
func Format(snap *domain.Snapshot, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Intraday monitor  %s", snap.Ticker)))
	sb.WriteString("\n")

	if snap.IsComputed() {
		sb.WriteString(formatTable(snap))
	} else {
		msg := "Waiting for market data..."
		if snap.FailureKind != "" {
			msg = fmt.Sprintf("Waiting for market data (%s)...", snap.FailureKind)
		}
		sb.WriteString(pendingStyle.Render(msg))
	}
	sb.WriteString("\n")

	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	footer := fmt.Sprintf("Last updated: %s", updated.In(loc).Format("15:04:05"))
	if snap.Session != "" {
		footer += fmt.Sprintf("  session: %s", snap.Session)
	}
	if snap.Quote != nil && snap.Quote.QuoteTime != "" {
		footer += fmt.Sprintf("  quote: %s", snap.Quote.QuoteTime)
	}
	sb.WriteString(footerStyle.Render(footer))
	sb.WriteString("\n")
	return sb.String()
}

// Headers returns the table headings for the given windows.
func Headers(shortWindow, longWindow int) []string {
	return []string{
		"Code", "Name", "Price", "Change",
		fmt.Sprintf("vs MA%d", shortWindow),
		fmt.Sprintf("MA%d", shortWindow), "Days",
		fmt.Sprintf("MA%d", longWindow), "Days",
		"Lots", "Vol Ratio",
		fmt.Sprintf("Avg Lots (%dd)", shortWindow),
		"Est. Lots",
	}
}

// Row returns the formatted cells of a computed snapshot.
func Row(snap *domain.Snapshot) []string {
	q, ind := snap.Quote, snap.Indicators
	return []string{
		snap.Ticker,
		q.Name,
		q.Price.StringFixed(2),
		fmt.Sprintf("%s (%s%%)", signed(ind.ChangeAbs), signed(ind.ChangePct)),
		signed(ind.PriceVsShortMAPct) + "%",
		ind.ShortMA.StringFixed(2),
		strconv.Itoa(ind.ShortWindow),
		ind.LongMA.StringFixed(2),
		strconv.Itoa(ind.LongWindow),
		groupThousands(ind.LotVolume.StringFixed(0)),
		ind.VolumeRatioPct.StringFixed(2) + "%",
		ind.AvgDailyLotVolume.StringFixed(2),
		ind.EstimatedFullDayLotVolume.StringFixed(0),
	}
}

func formatTable(snap *domain.Snapshot) string {
	dir := domain.DirectionOf(snap.Quote)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers(Headers(snap.Indicators.ShortWindow, snap.Indicators.LongWindow)...).
		Row(Row(snap)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case colPrice, colChange, colVsMA:
				switch dir {
				case domain.Up:
					return upStyle
				case domain.Down:
					return downStyle
				}
			}
			if s, ok := columnStyles[col]; ok {
				return s
			}
			return cellStyle
		})
	return t.Render()
}

// signed renders d with two decimals and an explicit sign.
func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

// groupThousands inserts commas into an integer string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var sb strings.Builder
	head := len(s) % 3
	if head > 0 {
		sb.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

// FormatJournal renders journaled snapshots, newest first, one row each with
// the update time prepended. Windows are taken from the first snapshot.
func FormatJournal(snaps []*domain.Snapshot, loc *time.Location) string {
	computed := make([]*domain.Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		if snap != nil && snap.IsComputed() {
			computed = append(computed, snap)
		}
	}
	if len(computed) == 0 {
		return pendingStyle.Render("No journaled snapshots.") + "\n"
	}
	first := computed[0].Indicators
	headers := append([]string{"Updated"}, Headers(first.ShortWindow, first.LongWindow)...)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			// Shift by one for the Updated column.
			if s, ok := columnStyles[col-1]; ok {
				return s
			}
			return cellStyle
		})
	for _, snap := range computed {
		t.Row(append([]string{snap.UpdatedAt.In(loc).Format("01-02 15:04:05")}, Row(snap)...)...)
	}
	return t.Render() + "\n"
}
