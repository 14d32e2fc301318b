package model

import (
	"github.com/shopspring/decimal"
)

// DashboardStats aggregates the counters shown on the dashboard landing page
type DashboardStats struct {
	TotalProducts      int64           `json:"totalProducts"`
	LowStockCount      int64           `json:"lowStockCount"`
	NearExpiryCount    int64           `json:"nearExpiryCount"`
	MonthRevenue       decimal.Decimal `json:"monthRevenue"`
	MonthQuantity      int             `json:"monthQuantity"`
	TopProducts        []SalesData     `json:"topProducts"`
	RecentOrders       []Order         `json:"recentOrders"`
	PendingOrdersCount int64           `json:"pendingOrdersCount"`
}

// MonthTotals is the sum of all SalesData rows of one month
type MonthTotals struct {
	Revenue  decimal.Decimal
	Quantity int
}
