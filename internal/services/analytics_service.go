// Package services wires the pipeline together for callers: load datasets,
// assemble the sales table, filter periods, run the metrics engine and the
// period comparator. Results are cached per (data dir, status filter) and
// invalidated when the underlying source files change.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"salespulse/internal/compare"
	"salespulse/internal/config"
	"salespulse/internal/dataset"
	"salespulse/internal/metrics"
	"salespulse/internal/period"
	"salespulse/internal/sales"
)

// AnalyticsService runs the analytics pipeline over a data directory.
type AnalyticsService struct {
	cfg    *config.Config
	logger *slog.Logger
	loader *dataset.Loader

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*assembly

	runsTotal      prometheus.Counter
	cacheHitsTotal prometheus.Counter
	droppedRows    prometheus.Counter
}

// assembly is one cached load+assemble result for a (dir, status) pair.
type assembly struct {
	rows        []sales.Row
	datasets    *dataset.Datasets
	diagnostics *sales.Diagnostics
	loadStats   []dataset.FileStats
	fingerprint string
	builtAt     time.Time
}

// NewAnalyticsService creates the analytics service. A nil logger falls back
// to slog.Default; a nil registerer falls back to the default prometheus
// registerer.
func NewAnalyticsService(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &AnalyticsService{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "analytics_service")),
		loader: dataset.NewLoader(logger),
		cache:  make(map[string]*assembly),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salespulse_pipeline_runs_total",
			Help: "Number of full pipeline runs (load + assemble).",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salespulse_assembly_cache_hits_total",
			Help: "Number of requests served from the assembly cache.",
		}),
		droppedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salespulse_join_dropped_rows_total",
			Help: "Order items dropped by joins and filters during assembly.",
		}),
	}

	reg.MustRegister(s.runsTotal, s.cacheHitsTotal, s.droppedRows)
	return s
}

// CompareRequest describes one period-comparison run. An empty DataDir uses
// the configured data directory.
type CompareRequest struct {
	DataDir    string
	Statuses   sales.StatusFilter
	Current    period.Range
	Comparison period.Range
}

// CompareResult is the full aggregation the presentation layer consumes.
type CompareResult struct {
	Current           period.Range                  `json:"current_period"`
	Comparison        period.Range                  `json:"comparison_period"`
	StatusFilter      string                        `json:"status_filter"`
	Metrics           map[string]compare.Comparison `json:"metrics"`
	CurrentSummary    compare.Summary               `json:"current_summary"`
	ComparisonSummary compare.Summary               `json:"comparison_summary"`
	MonthlyCurrent    []metrics.MonthGrowth         `json:"monthly_current"`
	MonthlyComparison []metrics.MonthGrowth         `json:"monthly_comparison"`
	Categories        []metrics.CategoryRevenue     `json:"categories"`
	States            []metrics.StateRevenue        `json:"states"`
	DeliveryBuckets   []metrics.BucketScore         `json:"delivery_buckets"`
	ReviewScores      []metrics.ScoreCount          `json:"review_scores"`
	Diagnostics       *sales.Diagnostics            `json:"diagnostics"`
	LoadStats         []dataset.FileStats           `json:"load_stats"`
	GeneratedAt       time.Time                     `json:"generated_at"`
}

// Compare runs the pipeline for both periods and aggregates every metric the
// dashboard renders. Category, state, bucket and score breakdowns cover the
// current period.
func (s *AnalyticsService) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	asm, err := s.assembly(ctx, s.dataDir(req.DataDir), req.Statuses)
	if err != nil {
		return nil, err
	}

	current := sales.FilterByRange(asm.rows, req.Current)
	comparison := sales.FilterByRange(asm.rows, req.Comparison)

	s.logger.InfoContext(ctx, "comparing periods",
		slog.String("current", req.Current.String()),
		slog.String("comparison", req.Comparison.String()),
		slog.Int("current_rows", len(current)),
		slog.Int("comparison_rows", len(comparison)),
	)

	return &CompareResult{
		Current:           req.Current,
		Comparison:        req.Comparison,
		StatusFilter:      req.Statuses.String(),
		Metrics:           compare.Compare(current, comparison, compare.DefaultRegistry()),
		CurrentSummary:    compare.Summarize(current),
		ComparisonSummary: compare.Summarize(comparison),
		MonthlyCurrent:    metrics.MonthOverMonthGrowth(metrics.RevenueByMonth(current)),
		MonthlyComparison: metrics.MonthOverMonthGrowth(metrics.RevenueByMonth(comparison)),
		Categories:        metrics.RevenueByCategory(current),
		States:            metrics.RevenueByState(current),
		DeliveryBuckets:   metrics.ReviewByDeliveryBucket(current),
		ReviewScores:      metrics.ReviewScoreDistribution(current),
		Diagnostics:       asm.diagnostics,
		LoadStats:         asm.loadStats,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// SummaryRequest describes a one-period summary run.
type SummaryRequest struct {
	DataDir  string
	Statuses sales.StatusFilter
	Period   period.Range
}

// SummaryResult is the one-period view backing the dashboard cards.
type SummaryResult struct {
	Period          period.Range              `json:"period"`
	StatusFilter    string                    `json:"status_filter"`
	Summary         compare.Summary           `json:"summary"`
	Monthly         []metrics.MonthGrowth     `json:"monthly"`
	Categories      []metrics.CategoryRevenue `json:"categories"`
	States          []metrics.StateRevenue    `json:"states"`
	DeliveryBuckets []metrics.BucketScore     `json:"delivery_buckets"`
	ReviewScores    []metrics.ScoreCount      `json:"review_scores"`
	Diagnostics     *sales.Diagnostics        `json:"diagnostics"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// Summary computes the single-period statistics block.
func (s *AnalyticsService) Summary(ctx context.Context, req SummaryRequest) (*SummaryResult, error) {
	asm, err := s.assembly(ctx, s.dataDir(req.DataDir), req.Statuses)
	if err != nil {
		return nil, err
	}

	rows := sales.FilterByRange(asm.rows, req.Period)

	return &SummaryResult{
		Period:          req.Period,
		StatusFilter:    req.Statuses.String(),
		Summary:         compare.Summarize(rows),
		Monthly:         metrics.MonthOverMonthGrowth(metrics.RevenueByMonth(rows)),
		Categories:      metrics.RevenueByCategory(rows),
		States:          metrics.RevenueByState(rows),
		DeliveryBuckets: metrics.ReviewByDeliveryBucket(rows),
		ReviewScores:    metrics.ReviewScoreDistribution(rows),
		Diagnostics:     asm.diagnostics,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// Distributions reports the order status and payment type distributions over
// the raw datasets, unfiltered by period.
type Distributions struct {
	OrderStatuses []metrics.StatusCount      `json:"order_statuses"`
	PaymentTypes  []metrics.PaymentTypeCount `json:"payment_types"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}

// DatasetDistributions computes the dataset-level distributions.
func (s *AnalyticsService) DatasetDistributions(ctx context.Context, dataDir string) (*Distributions, error) {
	asm, err := s.assembly(ctx, s.dataDir(dataDir), sales.AllStatuses())
	if err != nil {
		return nil, err
	}

	return &Distributions{
		OrderStatuses: metrics.OrderStatusDistribution(asm.datasets.Orders),
		PaymentTypes:  metrics.PaymentTypeDistribution(asm.datasets.Payments),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (s *AnalyticsService) dataDir(override string) string {
	if override != "" {
		return override
	}
	return s.cfg.Paths.DataDir
}

// assembly returns the cached load+assemble result for the directory and
// status filter, rebuilding when the source files changed. Concurrent
// requests for the same key share one rebuild.
func (s *AnalyticsService) assembly(ctx context.Context, dir string, statuses sales.StatusFilter) (*assembly, error) {
	key := dir + "|" + statuses.String()

	fingerprint, err := sourceFingerprint(dir)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && cached.fingerprint == fingerprint {
		s.cacheHitsTotal.Inc()
		return cached, nil
	}

	result, err, _ := s.group.Do(key+"|"+fingerprint, func() (interface{}, error) {
		return s.build(ctx, dir, statuses, fingerprint)
	})
	if err != nil {
		return nil, err
	}

	asm := result.(*assembly)
	s.mu.Lock()
	s.cache[key] = asm
	s.mu.Unlock()

	return asm, nil
}

func (s *AnalyticsService) build(ctx context.Context, dir string, statuses sales.StatusFilter, fingerprint string) (*assembly, error) {
	s.runsTotal.Inc()

	ds, loadStats, err := s.loader.LoadAll(ctx, dir)
	if err != nil {
		return nil, err
	}

	cfg := DefaultAssemblerConfig(statuses)
	rows, diag, err := sales.NewAssembler(s.logger, cfg).Build(ctx, ds)
	if err != nil {
		return nil, err
	}

	s.droppedRows.Add(float64(diag.Dropped()))

	return &assembly{
		rows:        rows,
		datasets:    ds,
		diagnostics: diag,
		loadStats:   loadStats,
		fingerprint: fingerprint,
		builtAt:     time.Now().UTC(),
	}, nil
}

// DefaultAssemblerConfig applies the requested status filter to the default
// full-enrichment assembly.
func DefaultAssemblerConfig(statuses sales.StatusFilter) sales.AssemblerConfig {
	cfg := sales.DefaultAssemblerConfig()
	cfg.Statuses = statuses
	return cfg
}

// sourceFingerprint hashes the identity of the six source files by name,
// size and modification time. Any change invalidates cached assemblies.
func sourceFingerprint(dir string) (string, error) {
	files := []string{
		dataset.FileOrders,
		dataset.FileOrderItems,
		dataset.FileProducts,
		dataset.FileCustomers,
		dataset.FileReviews,
		dataset.FilePayments,
	}

	fingerprint := ""
	for _, file := range files {
		info, err := os.Stat(filepath.Join(dir, file))
		if err != nil {
			// Let the loader surface the missing file as a load error.
			fingerprint += fmt.Sprintf("%s:absent;", file)
			continue
		}
		fingerprint += fmt.Sprintf("%s:%d:%d;", file, info.Size(), info.ModTime().UnixNano())
	}
	return fingerprint, nil
}
