// Command analyzer runs the full analysis batch: load the datasets, compare
// the configured current and comparison periods, print the report and write
// CSV/Excel exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salespulse/internal/compare"
	"salespulse/internal/config"
	"salespulse/internal/exporter"
	"salespulse/internal/metrics"
	"salespulse/internal/sales"
	"salespulse/internal/services"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to config file")
	dataDir := flag.String("data", "", "data directory override")
	outDir := flag.String("out", "", "reports directory override")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := run(cfg, *dataDir, *outDir, logger); err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dataDir, outDir string, logger *slog.Logger) error {
	ctx := context.Background()

	current, err := cfg.Analysis.Current.Range()
	if err != nil {
		return err
	}
	comparison, err := cfg.Analysis.Comparison.Range()
	if err != nil {
		return err
	}

	statuses := sales.DeliveredOnly()
	if cfg.Analysis.StatusFilter == "all" {
		statuses = sales.AllStatuses()
	} else if cfg.Analysis.StatusFilter != "" {
		statuses = sales.Statuses(cfg.Analysis.StatusFilter)
	}

	service := services.NewAnalyticsService(cfg, logger, nil)
	result, err := service.Compare(ctx, services.CompareRequest{
		DataDir:    dataDir,
		Statuses:   statuses,
		Current:    current,
		Comparison: comparison,
	})
	if err != nil {
		return err
	}

	printReport(result)

	reportsDir := outDir
	if reportsDir == "" {
		reportsDir = cfg.Paths.ReportsDir
	}

	csvWriter := exporter.NewCSVWriter(logger)
	if err := csvWriter.WriteComparison(filepath.Join(reportsDir, "comparison.csv"), result); err != nil {
		return err
	}
	if err := csvWriter.WriteCategories(filepath.Join(reportsDir, "categories.csv"), result.Categories); err != nil {
		return err
	}
	if err := csvWriter.WriteStates(filepath.Join(reportsDir, "states.csv"), result.States); err != nil {
		return err
	}
	if err := csvWriter.WriteMonthly(filepath.Join(reportsDir, "monthly.csv"), result.MonthlyCurrent); err != nil {
		return err
	}

	excelWriter := exporter.NewExcelWriter(logger)
	if err := excelWriter.WriteReport(filepath.Join(reportsDir, "analysis.xlsx"), result); err != nil {
		return err
	}

	fmt.Printf("\nReports written to %s\n", reportsDir)
	return nil
}

func printReport(result *services.CompareResult) {
	line := func() { fmt.Println(strings.Repeat("=", 70)) }

	line()
	fmt.Println("E-COMMERCE BUSINESS ANALYTICS")
	line()
	fmt.Printf("Current period:    %s\n", result.Current)
	fmt.Printf("Comparison period: %s\n", result.Comparison)
	fmt.Printf("Status filter:     %s\n", result.StatusFilter)

	fmt.Println()
	line()
	fmt.Println("PERIOD COMPARISON")
	line()
	fmt.Printf("%-24s %14s %14s %12s\n", "Metric", "Current", "Comparison", "Change %")
	for _, name := range compare.MetricNames(compare.DefaultRegistry()) {
		m, ok := result.Metrics[name]
		if !ok {
			continue
		}
		fmt.Printf("%-24s %14s %14s %12s\n", name, cell(m.Current), cell(m.Comparison), pct(m.PercentDelta))
	}

	if len(result.Categories) > 0 {
		fmt.Println()
		line()
		fmt.Println("TOP CATEGORIES BY REVENUE")
		line()
		top := result.Categories
		if len(top) > 10 {
			top = top[:10]
		}
		for _, c := range top {
			fmt.Printf("%-40s %14s\n", c.Category, c.Revenue.StringFixed(2))
		}
	}

	fmt.Println()
	line()
	fmt.Println("JOIN DIAGNOSTICS")
	line()
	d := result.Diagnostics
	fmt.Printf("Input items: %d  Output rows: %d  Orphans: %d  Status-filtered: %d  Duplicates: %d\n",
		d.InputItems, d.OutputRows, d.OrphanItems, d.StatusFiltered, d.DuplicateItems)
}

func cell(r metrics.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

func pct(r metrics.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", r.Value*100)
}
