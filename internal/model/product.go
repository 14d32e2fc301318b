package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Built-in product types. Categories registered through metadata extend this list.
const (
	ProductTypeWheyProtein  = "whey-protein"
	ProductTypeCreatine     = "creatine"
	ProductTypePeanutButter = "peanut-butter"
	ProductTypePreWorkout   = "pre-workout"
	ProductTypeOther        = "other"
)

var BuiltinProductTypes = []string{
	ProductTypeWheyProtein,
	ProductTypeCreatine,
	ProductTypePeanutButter,
	ProductTypePreWorkout,
	ProductTypeOther,
}

// Unit status values
const (
	UnitStatusAvailable = "available"
	UnitStatusSold      = "sold"
	UnitStatusExpired   = "expired"
	UnitStatusDamaged   = "damaged"
)

// Product is a catalog entry. Quantity is a cached counter: for products that
// own serialized units it always equals the number of available units.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Brand       string          `gorm:"type:varchar(255);not null;index" json:"brand"`
	Type        string          `gorm:"type:varchar(100);not null;index" json:"type"`
	Flavor      string          `gorm:"type:varchar(255);not null" json:"flavor"`
	Weight      string          `gorm:"type:varchar(100);not null" json:"weight"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"costPrice"`
	Quantity    int             `gorm:"type:int;not null;default:0;index" json:"quantity"`
	Units       []ProductUnit   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"units"`
	Image       string          `gorm:"type:varchar(500)" json:"image,omitempty"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	DateAdded   time.Time       `gorm:"index" json:"dateAdded"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductUnit is a single serialized item owned by a product.
type ProductUnit struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"productId"`
	SerialNumber string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"serialNumber"`
	ExpiryDate   time.Time  `gorm:"not null;index" json:"expiryDate"`
	Status       string     `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	SoldDate     *time.Time `json:"soldDate,omitempty"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index" json:"orderId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// IsSerialized reports whether stock is tracked per unit rather than by a bare counter.
func (p *Product) IsSerialized() bool {
	return len(p.Units) > 0
}

// AvailableCount counts units whose stored status is available.
func (p *Product) AvailableCount() int {
	n := 0
	for _, u := range p.Units {
		if u.Status == UnitStatusAvailable {
			n++
		}
	}
	return n
}

// SyncQuantity re-derives Quantity from the units of a serialized product.
// Bulk products keep their counter.
func (p *Product) SyncQuantity() {
	if p.IsSerialized() {
		p.Quantity = p.AvailableCount()
	}
}

// Unit returns the unit with the given id, or nil.
func (p *Product) Unit(id uuid.UUID) *ProductUnit {
	for i := range p.Units {
		if p.Units[i].ID == id {
			return &p.Units[i]
		}
	}
	return nil
}

// EffectiveStatus is the stored status, except that an available unit whose
// expiry date has passed is reported as expired.
func (u *ProductUnit) EffectiveStatus(now time.Time) string {
	if u.Status == UnitStatusAvailable && !u.ExpiryDate.After(now) {
		return UnitStatusExpired
	}
	return u.Status
}

// Sellable reports whether the unit can be attached to an order at now.
func (u *ProductUnit) Sellable(now time.Time) bool {
	return u.EffectiveStatus(now) == UnitStatusAvailable
}

func IsValidUnitStatus(s string) bool {
	switch s {
	case UnitStatusAvailable, UnitStatusSold, UnitStatusExpired, UnitStatusDamaged:
		return true
	}
	return false
}

// ExpiringUnit is one alert row: the owning product flattened next to a single unit.
type ExpiringUnit struct {
	ProductID    uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Type         string          `json:"type"`
	Flavor       string          `json:"flavor"`
	Weight       string          `json:"weight"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	UnitID       uuid.UUID       `json:"unitId"`
	SerialNumber string          `json:"serialNumber"`
	ExpiryDate   time.Time       `json:"expiryDate"`
	Quantity     int             `json:"quantity"`
}
