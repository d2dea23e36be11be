package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer segments by purchase frequency
const (
	SegmentInactive = "Inactive"
	SegmentLow      = "Low"
	SegmentMedium   = "Medium"
	SegmentHigh     = "High"
)

// Segments lists every segment from least to most active
var Segments = []string{SegmentInactive, SegmentLow, SegmentMedium, SegmentHigh}

// KPIs are the headline metrics of the filtered merged set
type KPIs struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
}

// ProductPerformance aggregates merged rows per product name
type ProductPerformance struct {
	ProductName    string          `json:"productname"`
	TotalUnitsSold int             `json:"total_units_sold"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// CustomerAggregate aggregates merged rows per customer
type CustomerAggregate struct {
	CustomerID  int64           `json:"customerid"`
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	Age         int             `json:"age"`
	Gender      string          `json:"gender"`
	Location    string          `json:"location"`
}

// CustomerSegment classifies a customer by transaction count
type CustomerSegment struct {
	CustomerID  int64  `json:"customerid"`
	TotalOrders int    `json:"total_orders"`
	Segment     string `json:"customer_segment"`
}

// SegmentCount is the number of customers in a segment
type SegmentCount struct {
	Segment string `json:"segment"`
	Count   int    `json:"count"`
}

// RepeatCustomer is a customer who purchased on more than one calendar date
type RepeatCustomer struct {
	CustomerID int64 `json:"customerid"`
	ActiveDays int   `json:"active_days"`
}

// LoyaltyPoint pairs active days with transaction count for one customer
type LoyaltyPoint struct {
	CustomerID  int64 `json:"customerid"`
	DaysActive  int   `json:"days_active"`
	TotalOrders int   `json:"total_orders"`
}

// MonthlyRevenue is revenue bucketed by year-month ("2024-03")
type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"monthly_revenue"`
}

// Dashboard is every projection computed for one category filter
type Dashboard struct {
	SelectedCategories  []string             `json:"selected_categories"`
	AvailableCategories []string             `json:"available_categories"`
	KPIs                KPIs                 `json:"kpis"`
	ProductPerformance  []ProductPerformance `json:"product_performance"`
	TopProducts         []ProductPerformance `json:"top_products"`
	BottomProducts      []ProductPerformance `json:"bottom_products"`
	Customers           []CustomerAggregate  `json:"customers"`
	Segments            []CustomerSegment    `json:"segments"`
	SegmentCounts       []SegmentCount       `json:"segment_counts"`
	RepeatCustomers     []RepeatCustomer     `json:"repeat_customers"`
	Loyalty             []LoyaltyPoint       `json:"loyalty"`
	MonthlyRevenue      []MonthlyRevenue     `json:"monthly_revenue"`
	MergedRows          int                  `json:"merged_rows"`
	ComputedAt          time.Time            `json:"computed_at"`
}
