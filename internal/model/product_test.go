package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_SyncQuantity(t *testing.T) {
	now := time.Now()

	serialized := &Product{
		Quantity: 99,
		Units: []ProductUnit{
			{Status: UnitStatusAvailable, ExpiryDate: now.AddDate(0, 1, 0)},
			{Status: UnitStatusAvailable, ExpiryDate: now.AddDate(0, 2, 0)},
			{Status: UnitStatusSold, ExpiryDate: now.AddDate(0, 2, 0)},
			{Status: UnitStatusDamaged, ExpiryDate: now.AddDate(0, 2, 0)},
		},
	}
	serialized.SyncQuantity()
	assert.Equal(t, 2, serialized.Quantity)

	bulk := &Product{Quantity: 7}
	bulk.SyncQuantity()
	assert.Equal(t, 7, bulk.Quantity)
	assert.False(t, bulk.IsSerialized())
}

func TestProductUnit_EffectiveStatus(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		unit   ProductUnit
		want   string
		canBuy bool
	}{
		{"available in future", ProductUnit{Status: UnitStatusAvailable, ExpiryDate: now.Add(time.Hour)}, UnitStatusAvailable, true},
		{"available but elapsed", ProductUnit{Status: UnitStatusAvailable, ExpiryDate: now.Add(-time.Hour)}, UnitStatusExpired, false},
		{"expires exactly now", ProductUnit{Status: UnitStatusAvailable, ExpiryDate: now}, UnitStatusExpired, false},
		{"sold keeps status", ProductUnit{Status: UnitStatusSold, ExpiryDate: now.Add(-time.Hour)}, UnitStatusSold, false},
		{"damaged", ProductUnit{Status: UnitStatusDamaged, ExpiryDate: now.AddDate(1, 0, 0)}, UnitStatusDamaged, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.unit.EffectiveStatus(now))
			assert.Equal(t, tt.canBuy, tt.unit.Sellable(now))
		})
	}
}

func TestProduct_Unit(t *testing.T) {
	id := uuid.New()
	p := &Product{Units: []ProductUnit{{ID: uuid.New()}, {ID: id, SerialNumber: "WHE-ON-1"}}}

	u := p.Unit(id)
	if assert.NotNil(t, u) {
		u.Status = UnitStatusSold
		assert.Equal(t, UnitStatusSold, p.Units[1].Status)
	}
	assert.Nil(t, p.Unit(uuid.New()))
}

func TestOrderItem_LineTotal(t *testing.T) {
	item := OrderItem{Price: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.LineTotal()))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-03", MonthKey(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03", MonthKey(time.Date(2024, 4, 1, 1, 30, 0, 0, time.FixedZone("JST", 9*60*60))))
	assert.Equal(t, "2024-04", MonthKey(time.Date(2024, 3, 31, 20, 0, 0, 0, time.FixedZone("EST", -5*60*60))))
}
