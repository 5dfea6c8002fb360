package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"stockMonitor/internal/domain"
)

// WriteBarsToCSV writes daily bars to filename, creating parent directories.
func WriteBarsToCSV(ticker string, bars []domain.DailyBar, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteBars(file, ticker, bars); err != nil {
		return err
	}
	return file.Close()
}

// WriteBars writes a header and one record per bar.
func WriteBars(w io.Writer, ticker string, bars []domain.DailyBar) error {
	writer := csv.NewWriter(w)

	// Write header
	if err := writer.Write([]string{"date", "ticker", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		err := writer.Write([]string{
			b.Date.Format("2006-01-02"),
			ticker,
			b.Close.String(),
			strconv.FormatInt(b.Volume, 10),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
