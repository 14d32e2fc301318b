package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants
const (
	OrderStatusPending   = "pending"
	OrderStatusFulfilled = "fulfilled"
)

func IsValidOrderStatus(s string) bool {
	return s == OrderStatusPending || s == OrderStatusFulfilled
}

// Order is a customer sale. Line items are snapshots taken at placement time.
type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerName   string          `gorm:"type:varchar(255);not null" json:"customerName"`
	CustomerPhone  string          `gorm:"type:varchar(50);not null" json:"customerPhone"`
	CustomerEmail  string          `gorm:"type:varchar(255)" json:"customerEmail,omitempty"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discountAmount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"finalAmount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	OrderDate      time.Time       `gorm:"not null;index" json:"orderDate"`
	SoldBy         string          `gorm:"type:varchar(255);not null;index" json:"soldBy"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OrderItem is a line of an order. ProductID is a plain reference, not a foreign key,
// so deleting a product leaves order history intact.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	LineNo       int             `gorm:"type:int;not null" json:"-"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName"`
	UnitID       *uuid.UUID      `gorm:"type:uuid" json:"unitId,omitempty"`
	SerialNumber string          `gorm:"type:varchar(100)" json:"serialNumber,omitempty"`
	Quantity     int             `gorm:"type:int;not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

// LineTotal is Price × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
