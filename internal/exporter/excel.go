package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"salespulse/internal/compare"
	"salespulse/internal/services"
)

// ExcelWriter renders a full comparison run as a multi-sheet workbook.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteReport writes the comparison workbook: a summary sheet plus monthly,
// category, state and delivery breakdowns for the current period.
func (w *ExcelWriter) WriteReport(path string, result *services.CompareResult) error {
	w.logger.Info("writing Excel report",
		slog.String("path", path),
		slog.String("current", result.Current.String()),
		slog.String("comparison", result.Comparison.String()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, result); err != nil {
		return err
	}
	if err := w.writeMonthlySheet(f, result); err != nil {
		return err
	}
	if err := w.writeCategorySheet(f, result); err != nil {
		return err
	}
	if err := w.writeStateSheet(f, result); err != nil {
		return err
	}
	if err := w.writeDeliverySheet(f, result); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeSummarySheet(f *excelize.File, result *services.CompareResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Current period", result.Current.String()},
		{"Comparison period", result.Comparison.String()},
		{"Status filter", result.StatusFilter},
		{},
		{"Metric", "Current", "Comparison", "Change", "Change %"},
	}

	registry := compare.DefaultRegistry()
	for _, name := range compare.MetricNames(registry) {
		comparison, ok := result.Metrics[name]
		if !ok {
			continue
		}
		rows = append(rows, []interface{}{
			name,
			ratioCell(comparison.Current),
			ratioCell(comparison.Comparison),
			ratioCell(comparison.AbsoluteDelta),
			percentCell(comparison.PercentDelta),
		})
	}

	return writeRows(f, sheet, rows)
}

func (w *ExcelWriter) writeMonthlySheet(f *excelize.File, result *services.CompareResult) error {
	const sheet = "Monthly Revenue"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{{"Month", "Revenue", "MoM Growth %"}}
	for _, m := range result.MonthlyCurrent {
		rows = append(rows, []interface{}{m.Month.String(), m.Revenue.InexactFloat64(), percentCell(m.Growth)})
	}
	return writeRows(f, sheet, rows)
}

func (w *ExcelWriter) writeCategorySheet(f *excelize.File, result *services.CompareResult) error {
	const sheet = "Categories"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{{"Category", "Revenue"}}
	for _, c := range result.Categories {
		rows = append(rows, []interface{}{c.Category, c.Revenue.InexactFloat64()})
	}
	return writeRows(f, sheet, rows)
}

func (w *ExcelWriter) writeStateSheet(f *excelize.File, result *services.CompareResult) error {
	const sheet = "States"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{{"State", "Revenue"}}
	for _, s := range result.States {
		rows = append(rows, []interface{}{s.State, s.Revenue.InexactFloat64()})
	}
	return writeRows(f, sheet, rows)
}

func (w *ExcelWriter) writeDeliverySheet(f *excelize.File, result *services.CompareResult) error {
	const sheet = "Delivery"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{{"Delivery Speed", "Orders", "Avg Review Score"}}
	for _, b := range result.DeliveryBuckets {
		rows = append(rows, []interface{}{string(b.Bucket), b.Orders, ratioCell(b.AvgScore)})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
