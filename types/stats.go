package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sales report grouping periods.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// StatusCount is the number of orders carrying a given status.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int    `json:"count" db:"count"`
}

// GroupCount is a generic grouped count keyed by a catalog attribute value.
type GroupCount struct {
	Key   string `json:"key" db:"key"`
	Count int    `json:"count" db:"count"`
}

// PriceStats summarizes listing prices for one body type.
type PriceStats struct {
	Type     string          `json:"type" db:"type"`
	MinPrice decimal.Decimal `json:"min_price" db:"min_price"`
	AvgPrice decimal.Decimal `json:"avg_price" db:"avg_price"`
	MaxPrice decimal.Decimal `json:"max_price" db:"max_price"`
}

// SalesBucket is the revenue and order count within one reporting period.
type SalesBucket struct {
	Period     time.Time       `json:"period" db:"period"`
	TotalSales decimal.Decimal `json:"total_sales" db:"total_sales"`
	OrderCount int             `json:"order_count" db:"order_count"`
}

// DashboardStats is the overview payload for the admin dashboard.
type DashboardStats struct {
	TotalCars      int             `json:"total_cars"`
	TotalOrders    int             `json:"total_orders"`
	TotalUsers     int             `json:"total_users"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	OrdersByStatus []StatusCount   `json:"orders_by_status"`
	RecentOrders   []Order         `json:"recent_orders"`
}

// InventoryStats is the catalog breakdown payload for the admin dashboard.
type InventoryStats struct {
	CarsByType      []GroupCount `json:"cars_by_type"`
	CarsByCondition []GroupCount `json:"cars_by_condition"`
	CarsByBrand     []GroupCount `json:"cars_by_brand"`
	PriceByType     []PriceStats `json:"price_by_type"`
}
