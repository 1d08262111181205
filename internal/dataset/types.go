package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values observed in the source data. The status column is an
// open string domain; these constants cover the known values.
const (
	StatusCreated     = "created"
	StatusApproved    = "approved"
	StatusInvoiced    = "invoiced"
	StatusShipped     = "shipped"
	StatusDelivered   = "delivered"
	StatusCanceled    = "canceled"
	StatusUnavailable = "unavailable"
	StatusReturned    = "returned"
)

// Customer is immutable reference data describing a buyer.
type Customer struct {
	CustomerID string
	UniqueID   string
	ZipCode    string
	City       string
	State      string
}

// Order represents a single order header. Timestamp fields use the zero
// time.Time to mean "not set"; undelivered orders have a zero DeliveredAt.
type Order struct {
	OrderID             string
	CustomerID          string
	Status              string
	PurchasedAt         time.Time
	ApprovedAt          time.Time
	DeliveredCarrierAt  time.Time
	DeliveredAt         time.Time
	EstimatedDeliveryAt time.Time
}

// Delivered reports whether the order reached the customer.
func (o Order) Delivered() bool {
	return !o.DeliveredAt.IsZero()
}

// OrderItem is a single line item within an order. The composite key is
// (OrderID, ItemSequence).
type OrderItem struct {
	OrderID      string
	ItemSequence int
	ProductID    string
	SellerID     string
	Price        decimal.Decimal
	FreightValue decimal.Decimal
}

// Product describes a catalog item. Dimension and weight attributes are
// carried through from the source data but unused by the metrics engine.
type Product struct {
	ProductID    string
	CategoryName string
	WeightGrams  int
	LengthCm     int
	HeightCm     int
	WidthCm      int
}

// Review is a customer review tied to an order. Orders have zero or one
// review in practice; duplicates are resolved by the assembler.
type Review struct {
	ReviewID   string
	OrderID    string
	Score      int
	CreatedAt  time.Time
	AnsweredAt time.Time
}

// Payment records one payment leg of an order.
type Payment struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        decimal.Decimal
}

// Datasets holds all six source tables loaded for one analysis run. Tables
// are read-only snapshots; nothing downstream mutates them.
type Datasets struct {
	Customers  []Customer
	Orders     []Order
	OrderItems []OrderItem
	Products   []Product
	Reviews    []Review
	Payments   []Payment
}

// FileStats records per-file load diagnostics.
type FileStats struct {
	File    string `json:"file"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}
