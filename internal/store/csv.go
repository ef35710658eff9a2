package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"backlite/internal/domain"
)

// ReadCSVBars loads bars for one symbol from a CSV file. The first row must
// be a header; column names are matched case-insensitively. Required columns
// are date (or timestamp), open, high, low, and close; volume is optional.
// Dates parse as RFC 3339 or as plain YYYY-MM-DD.
func ReadCSVBars(path, symbol string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		bar, err := cols.parse(row, symbol)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// columnMap holds the index of each recognized column, -1 when absent.
type columnMap struct {
	date, open, high, low, closePx, volume int
}

func mapColumns(header []string) (*columnMap, error) {
	cols := &columnMap{date: -1, open: -1, high: -1, low: -1, closePx: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "timestamp", "time":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.closePx = i
		case "volume":
			cols.volume = i
		}
	}
	if cols.date < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.closePx < 0 {
		return nil, fmt.Errorf("csv header %v missing a required column (date, open, high, low, close)", header)
	}
	return cols, nil
}

func (c *columnMap) parse(row []string, symbol string) (domain.Bar, error) {
	ts, err := parseDate(row[c.date])
	if err != nil {
		return domain.Bar{}, err
	}

	fields := [4]float64{}
	for i, idx := range [4]int{c.open, c.high, c.low, c.closePx} {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parsing %q: %w", row[idx], err)
		}
		fields[i] = v
	}

	var volume int64
	if c.volume >= 0 {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[c.volume]), 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parsing volume %q: %w", row[c.volume], err)
		}
		volume = int64(v)
	}

	return domain.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    volume,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
