package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "salespulse/internal/errors"
)

// Source file names, one per entity. The base directory is configurable; the
// file names are fixed by the upstream export.
const (
	FileOrders     = "orders_dataset.csv"
	FileOrderItems = "order_items_dataset.csv"
	FileProducts   = "products_dataset.csv"
	FileCustomers  = "customers_dataset.csv"
	FileReviews    = "order_reviews_dataset.csv"
	FilePayments   = "order_payments_dataset.csv"
)

// Loader reads the six source datasets from a base directory into typed
// in-memory tables. It has no side effects beyond file reads.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a dataset loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadAll loads every dataset from dir. A missing or unreadable file is fatal
// and reported with the file name; malformed rows are skipped with a warning
// and counted in the returned per-file stats.
func (l *Loader) LoadAll(ctx context.Context, dir string) (*Datasets, []FileStats, error) {
	l.logger.InfoContext(ctx, "loading datasets", slog.String("dir", dir))

	ds := &Datasets{}
	var stats []FileStats

	steps := []struct {
		file string
		load func(*table) (int, int)
	}{
		{FileOrders, func(t *table) (int, int) { return l.loadOrders(t, ds) }},
		{FileOrderItems, func(t *table) (int, int) { return l.loadOrderItems(t, ds) }},
		{FileProducts, func(t *table) (int, int) { return l.loadProducts(t, ds) }},
		{FileCustomers, func(t *table) (int, int) { return l.loadCustomers(t, ds) }},
		{FileReviews, func(t *table) (int, int) { return l.loadReviews(t, ds) }},
		{FilePayments, func(t *table) (int, int) { return l.loadPayments(t, ds) }},
	}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("load cancelled: %w", ctx.Err())
		default:
		}

		t, err := readTable(filepath.Join(dir, step.file))
		if err != nil {
			return nil, nil, apperrors.NewLoadError(step.file, err)
		}

		rows, skipped := step.load(t)
		stats = append(stats, FileStats{File: step.file, Rows: rows, Skipped: skipped})

		if skipped > 0 {
			l.logger.WarnContext(ctx, "skipped malformed rows",
				slog.String("file", step.file),
				slog.Int("skipped", skipped),
			)
		}
	}

	l.logger.InfoContext(ctx, "datasets loaded",
		slog.Int("orders", len(ds.Orders)),
		slog.Int("order_items", len(ds.OrderItems)),
		slog.Int("products", len(ds.Products)),
		slog.Int("customers", len(ds.Customers)),
		slog.Int("reviews", len(ds.Reviews)),
		slog.Int("payments", len(ds.Payments)),
	)

	return ds, stats, nil
}

func (l *Loader) loadOrders(t *table, ds *Datasets) (rows, skipped int) {
	for i, rec := range t.records {
		o := Order{
			OrderID:    t.get(rec, "order_id"),
			CustomerID: t.get(rec, "customer_id"),
			Status:     strings.ToLower(t.get(rec, "order_status")),
		}
		if o.OrderID == "" {
			l.warnRow(FileOrders, i, "empty order_id")
			skipped++
			continue
		}

		purchased, err := parseTimestamp(t.get(rec, "order_purchase_timestamp"))
		if err != nil || purchased.IsZero() {
			l.warnRow(FileOrders, i, "invalid purchase timestamp")
			skipped++
			continue
		}
		o.PurchasedAt = purchased

		// Remaining timestamps are nullable: a blank or unparseable cell
		// stays the zero time.
		o.ApprovedAt, _ = parseTimestamp(t.get(rec, "order_approved_at"))
		o.DeliveredCarrierAt, _ = parseTimestamp(t.get(rec, "order_delivered_carrier_date"))
		o.DeliveredAt, _ = parseTimestamp(t.get(rec, "order_delivered_customer_date"))
		o.EstimatedDeliveryAt, _ = parseTimestamp(t.get(rec, "order_estimated_delivery_date"))

		ds.Orders = append(ds.Orders, o)
		rows++
	}
	return rows, skipped
}

func (l *Loader) loadOrderItems(t *table, ds *Datasets) (rows, skipped int) {
	for i, rec := range t.records {
		item := OrderItem{
			OrderID:   t.get(rec, "order_id"),
			ProductID: t.get(rec, "product_id"),
			SellerID:  t.get(rec, "seller_id"),
		}
		if item.OrderID == "" || item.ProductID == "" {
			l.warnRow(FileOrderItems, i, "missing order or product key")
			skipped++
			continue
		}

		seq, err := strconv.Atoi(t.get(rec, "order_item_id"))
		if err != nil {
			l.warnRow(FileOrderItems, i, "invalid item sequence")
			skipped++
			continue
		}
		item.ItemSequence = seq

		price, err := parseAmount(t.get(rec, "price"))
		if err != nil {
			l.warnRow(FileOrderItems, i, "invalid price")
			skipped++
			continue
		}
		item.Price = price

		freight, err := parseAmount(t.get(rec, "freight_value"))
		if err != nil {
			l.warnRow(FileOrderItems, i, "invalid freight value")
			skipped++
			continue
		}
		item.FreightValue = freight

		ds.OrderItems = append(ds.OrderItems, item)
		rows++
	}
	return rows, skipped
}

func (l *Loader) loadProducts(t *table, ds *Datasets) (rows, skipped int) {
	for i, rec := range t.records {
		p := Product{
			ProductID:    t.get(rec, "product_id"),
			CategoryName: t.get(rec, "product_category_name"),
			WeightGrams:  parseIntDefault(t.get(rec, "product_weight_g")),
			LengthCm:     parseIntDefault(t.get(rec, "product_length_cm")),
			HeightCm:     parseIntDefault(t.get(rec, "product_height_cm")),
			WidthCm:      parseIntDefault(t.get(rec, "product_width_cm")),
		}
		if p.ProductID == "" {
			l.warnRow(FileProducts, i, "empty product_id")
			skipped++
			continue
		}
		ds.Products = append(ds.Products, p)
		rows++
	}
	return rows, skipped
}

func (l *Loader) loadCustomers(t *table, ds *Datasets) (rows, skipped int) {
	for i, rec := range t.records {
		c := Customer{
			CustomerID: t.get(rec, "customer_id"),
			UniqueID:   t.get(rec, "customer_unique_id"),
			ZipCode:    t.get(rec, "customer_zip_code_prefix"),
			City:       t.get(rec, "customer_city"),
			State:      strings.ToUpper(t.get(rec, "customer_state")),
		}
		if c.CustomerID == "" {
			l.warnRow(FileCustomers, i, "empty customer_id")
			skipped++
			continue
		}
		ds.Customers = append(ds.Customers, c)
		rows++
	}
	return rows, skipped
}

func (l *Loader) loadReviews(t *table, ds *Datasets) (rows, skipped int) {
	for i, rec := range t.records {
		r := Review{
			ReviewID: t.get(rec, "review_id"),
			OrderID:  t.get(rec, "order_id"),
		}
		if r.OrderID == "" {
			l.warnRow(FileReviews, i, "empty order_id")
			skipped++
			continue
		}

		score, err := strconv.Atoi(t.get(rec, "review_score"))
		if err != nil || score < 1 || score > 5 {
			l.warnRow(FileReviews, i, "review score outside 1-5")
			skipped++
			continue
		}
		r.Score = score

		r.CreatedAt, _ = parseTimestamp(t.get(rec, "review_creation_date"))
		r.AnsweredAt, _ = parseTimestamp(t.get(rec, "review_answer_timestamp"))

		ds.Reviews = append(ds.Reviews, r)
		rows++
	}
	return rows, skipped
}

func (l *Loader) loadPayments(t *table, ds *Datasets) (rows, skipped int) {
	for i, rec := range t.records {
		p := Payment{
			OrderID:      t.get(rec, "order_id"),
			Sequential:   parseIntDefault(t.get(rec, "payment_sequential")),
			Type:         strings.ToLower(t.get(rec, "payment_type")),
			Installments: parseIntDefault(t.get(rec, "payment_installments")),
		}
		if p.OrderID == "" {
			l.warnRow(FilePayments, i, "empty order_id")
			skipped++
			continue
		}

		value, err := parseAmount(t.get(rec, "payment_value"))
		if err != nil {
			l.warnRow(FilePayments, i, "invalid payment value")
			skipped++
			continue
		}
		p.Value = value

		ds.Payments = append(ds.Payments, p)
		rows++
	}
	return rows, skipped
}

func (l *Loader) warnRow(file string, idx int, reason string) {
	// Data rows start after the header line.
	l.logger.Warn("skipping malformed row",
		slog.String("file", file),
		slog.Int("line", idx+2),
		slog.String("reason", reason),
	)
}

// table is a parsed CSV file: a header index plus raw records.
type table struct {
	columns map[string]int
	records [][]string
}

// get returns the named column of a record, or "" when the column is absent.
func (t *table) get(record []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func readTable(path string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &table{columns: columns, records: records[1:]}, nil
}

// parseTimestamp attempts to parse timestamp strings in the formats the
// source exports use. An empty string parses to the zero time without error.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
		"2006/01/02 15:04:05",
	}

	for _, format := range formats {
		if ts, err := time.Parse(format, value); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", value)
}

// parseAmount parses a currency value.
func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount: %w", err)
	}
	return d, nil
}

// parseIntDefault parses an integer, tolerating the float formatting some
// exports apply to integral columns. Unparseable values default to 0.
func parseIntDefault(value string) int {
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(f)
	}
	return 0
}
