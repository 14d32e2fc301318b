package service

import (
	"context"
	"testing"
	"time"

	"inventory-api/internal/query"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboard_Empty(t *testing.T) {
	h := newHarness()

	stats, err := h.analytics.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalProducts)
	assert.True(t, stats.MonthRevenue.IsZero())
	assert.NotNil(t, stats.TopProducts)
	assert.NotNil(t, stats.RecentOrders)
}

func TestGetDashboard(t *testing.T) {
	h := newHarness()
	b := h.seedBulk(12)
	p := h.seedSerialized()

	_, err := h.orders.CreateOrder(context.Background(), "", orderRequest(qtyItem(b, 4)))
	require.NoError(t, err)
	_, err = h.orders.CreateOrder(context.Background(), "", orderRequest(unitItem(p, 2)))
	require.NoError(t, err)

	req := orderRequest(qtyItem(b, 1))
	lastYear := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	req.OrderDate = &lastYear
	_, err = h.orders.CreateOrder(context.Background(), "", req)
	require.NoError(t, err)

	stats, err := h.analytics.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(2), stats.LowStockCount)
	// units at 30 and 60 days are still available; the 90 day one was sold
	assert.Equal(t, int64(2), stats.NearExpiryCount)
	assert.True(t, decimal.RequireFromString("99.99").Equal(stats.MonthRevenue))
	assert.Equal(t, 5, stats.MonthQuantity)
	require.Len(t, stats.TopProducts, 2)
	assert.Equal(t, b.ID, stats.TopProducts[0].ProductID)
	assert.Len(t, stats.RecentOrders, 3)
	assert.Equal(t, int64(3), stats.PendingOrdersCount)
}

func TestGetSales(t *testing.T) {
	h := newHarness()
	b := h.seedBulk(12)

	_, err := h.orders.CreateOrder(context.Background(), "", orderRequest(qtyItem(b, 2)))
	require.NoError(t, err)

	rows, err := h.analytics.GetSales(context.Background(), query.SalesFilter{Month: "2024-03"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].QuantitySold)

	rows, err = h.analytics.GetSales(context.Background(), query.SalesFilter{Year: 2023})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
