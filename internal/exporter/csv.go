// Package exporter writes pipeline results to CSV and Excel reports.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salespulse/internal/compare"
	"salespulse/internal/metrics"
	"salespulse/internal/services"
)

// undefinedCell is rendered where a ratio metric has no defined value.
const undefinedCell = "n/a"

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return nil
}

// WriteComparison writes the period comparison metrics, one row per metric.
func (w *CSVWriter) WriteComparison(path string, result *services.CompareResult) error {
	registry := compare.DefaultRegistry()
	records := make([][]string, 0, len(result.Metrics))
	for _, name := range compare.MetricNames(registry) {
		comparison, ok := result.Metrics[name]
		if !ok {
			continue
		}
		records = append(records, []string{
			name,
			ratioCell(comparison.Current),
			ratioCell(comparison.Comparison),
			ratioCell(comparison.AbsoluteDelta),
			percentCell(comparison.PercentDelta),
		})
	}

	return w.WriteCSV(path, WriteOptions{
		Headers: []string{"Metric", "Current", "Comparison", "Change", "ChangePercent"},
		Records: records,
	})
}

// WriteCategories writes the revenue-by-category ranking.
func (w *CSVWriter) WriteCategories(path string, categories []metrics.CategoryRevenue) error {
	records := make([][]string, 0, len(categories))
	for _, c := range categories {
		records = append(records, []string{c.Category, c.Revenue.StringFixed(2)})
	}
	return w.WriteCSV(path, WriteOptions{
		Headers: []string{"Category", "Revenue"},
		Records: records,
	})
}

// WriteStates writes the revenue-by-state ranking.
func (w *CSVWriter) WriteStates(path string, states []metrics.StateRevenue) error {
	records := make([][]string, 0, len(states))
	for _, s := range states {
		records = append(records, []string{s.State, s.Revenue.StringFixed(2)})
	}
	return w.WriteCSV(path, WriteOptions{
		Headers: []string{"State", "Revenue"},
		Records: records,
	})
}

// WriteMonthly writes a revenue-by-month series with growth rates.
func (w *CSVWriter) WriteMonthly(path string, monthly []metrics.MonthGrowth) error {
	records := make([][]string, 0, len(monthly))
	for _, m := range monthly {
		records = append(records, []string{
			m.Month.String(),
			m.Revenue.StringFixed(2),
			percentCell(m.Growth),
		})
	}
	return w.WriteCSV(path, WriteOptions{
		Headers: []string{"Month", "Revenue", "GrowthPercent"},
		Records: records,
	})
}

func ratioCell(r metrics.Ratio) string {
	if !r.Defined {
		return undefinedCell
	}
	return fmt.Sprintf("%.2f", r.Value)
}

func percentCell(r metrics.Ratio) string {
	if !r.Defined {
		return undefinedCell
	}
	return fmt.Sprintf("%.2f%%", r.Value*100)
}
