package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement reasons
const (
	MovementProductCreated = "PRODUCT_CREATED"
	MovementRestock        = "RESTOCK"
	MovementOrderSale      = "ORDER_SALE"
	MovementAdjustment     = "ADJUSTMENT"
	MovementUnitRemoved    = "UNIT_REMOVED"
)

// StockMovement is the stock card: one row per change of a product's quantity.
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"productId"`
	OrderID         *uuid.UUID `gorm:"type:uuid;index" json:"orderId,omitempty"`
	UnitID          *uuid.UUID `gorm:"type:uuid" json:"unitId,omitempty"`
	Reason          string     `gorm:"type:varchar(30);not null" json:"reason"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantityChanged"`
	QuantityAfter   int        `gorm:"type:int;not null" json:"quantityAfter"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
}
