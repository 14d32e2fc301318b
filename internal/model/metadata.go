package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is a product type lookup record. Type is the value stored on Product.Type.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Type        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"type"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Image       string    `gorm:"type:varchar(500)" json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Brand struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Logo        string    `gorm:"type:varchar(500)" json:"logo,omitempty"`
	Image       string    `gorm:"type:varchar(500)" json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
