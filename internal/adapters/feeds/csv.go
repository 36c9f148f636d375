package feeds

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"quantsim/internal/domain"
)

// csvHeader is the column layout of recorded bar files.
var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// ReadCSVFeed loads a bar file recorded by WriteCSV into a historic feed,
// attributing every bar to the given asset.
func ReadCSVFeed(path string, asset domain.Asset) (*HistoricFeed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return NewHistoricFeed(), nil
	}

	events := make([]domain.Event, 0, len(rows)-1)
	for i, row := range rows[1:] { // skip header
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("row %d of %s: expected %d columns, got %d", i+2, path, len(csvHeader), len(row))
		}
		t, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: bad time %q: %w", i+2, path, row[0], err)
		}
		values := make([]float64, 5)
		for j, cell := range row[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d of %s: bad number %q: %w", i+2, path, cell, err)
			}
			values[j] = v
		}
		bar := domain.NewBar(values[0], values[1], values[2], values[3], values[4])
		events = append(events, domain.NewEvent(t, map[domain.Asset]domain.PriceAction{asset: bar}))
	}
	return NewHistoricFeed(events...), nil
}

// WriteCSV records the bar data of one asset from the given events into a
// file readable by ReadCSVFeed. Events without a bar for the asset are
// skipped.
func WriteCSV(path string, asset domain.Asset, events []domain.Event) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create feed file %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, event := range events {
		action, ok := event.Action(asset)
		if !ok {
			continue
		}
		bar, ok := action.(domain.Bar)
		if !ok {
			continue
		}
		record := []string{
			event.Time().Format(time.RFC3339),
			format(bar.Open), format(bar.High), format(bar.Low), format(bar.Close), format(bar.Volume),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
