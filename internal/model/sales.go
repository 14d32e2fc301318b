package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthLayout is the format of SalesData.Month.
const MonthLayout = "2006-01"

// SalesData is the monthly rollup of one product's sales. At most one row exists
// per (product, month).
type SalesData struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sales_product_month,priority:1" json:"productId"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName"`
	QuantitySold int             `gorm:"type:int;not null;default:0" json:"quantitySold"`
	Revenue      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"revenue"`
	Month        string          `gorm:"type:char(7);not null;uniqueIndex:idx_sales_product_month,priority:2;index" json:"month"`
	Year         int             `gorm:"type:int;not null;index" json:"year"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (SalesData) TableName() string {
	return "sales_data"
}

// MonthKey formats t as the YYYY-MM rollup key in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}
