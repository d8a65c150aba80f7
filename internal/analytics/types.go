//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package analytics

import "time"

// DayRevenue is one row of RevenueByDay.
type DayRevenue struct {
	Day     string  `json:"day" db:"day"`
	Orders  int64   `json:"orders" db:"orders"`
	Revenue float64 `json:"revenue" db:"revenue"`
}

// ProductRevenue is one row of TopProducts.
type ProductRevenue struct {
	SKU     string  `json:"sku" db:"sku"`
	Name    string  `json:"name" db:"name"`
	Units   int64   `json:"units" db:"units"`
	Revenue float64 `json:"revenue" db:"revenue"`
}

// CustomerRevenue is one row of TopCustomers. CustomerID is the key
// rendered as text so integer and uuid keys look the same.
type CustomerRevenue struct {
	CustomerID string  `json:"customer_id" db:"customer_id"`
	Email      string  `json:"email" db:"email"`
	FullName   string  `json:"full_name" db:"full_name"`
	Orders     int64   `json:"orders" db:"orders"`
	Revenue    float64 `json:"revenue" db:"revenue"`
}

// RepeatRate is the result of RepeatPurchaseRate.
type RepeatRate struct {
	Days            int     `json:"days" db:"-"`
	ActiveCustomers int64   `json:"active_customers" db:"active_customers"`
	RepeatCustomers int64   `json:"repeat_customers" db:"repeat_customers"`
	RepeatRate      float64 `json:"repeat_rate" db:"repeat_rate"`
}

// Margin is the result of GrossMargin.
type Margin struct {
	Days        int     `json:"days" db:"-"`
	Revenue     float64 `json:"revenue" db:"revenue"`
	Cost        float64 `json:"cost" db:"cost"`
	GrossMargin float64 `json:"gross_margin" db:"gross_margin"`
	MarginRate  float64 `json:"margin_rate" db:"margin_rate"`
}

// KPIs is the result of SalesKPIs.
type KPIs struct {
	Days    int     `json:"days" db:"-"`
	Orders  int64   `json:"orders" db:"orders"`
	Revenue float64 `json:"revenue" db:"revenue"`
	AOV     float64 `json:"aov" db:"aov"`
}

// StockLevel is one row of LowStock.
type StockLevel struct {
	SKU    string `json:"sku" db:"sku"`
	Name   string `json:"name" db:"name"`
	OnHand int64  `json:"on_hand" db:"on_hand"`
}

// TableCounts is the result of CountTables.
type TableCounts struct {
	Tables map[string]int64 `json:"tables"`
	Note   string           `json:"note,omitempty"`
}

// StatusCount is one row of the order status mix.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Orders int64  `json:"orders" db:"orders"`
}

// StatusMix is the order status distribution over a window. Available
// is false when orders has no status column.
type StatusMix struct {
	Available bool          `json:"available"`
	Rows      []StatusCount `json:"rows"`
}

// Backlog counts orders older than 24h still pending or processing.
type Backlog struct {
	Available bool      `json:"available"`
	Orders    int64     `json:"orders"`
	OlderThan time.Time `json:"older_than"`
}
