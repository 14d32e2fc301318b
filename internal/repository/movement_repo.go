package repository

import (
	"context"

	"inventory-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRepository stores the stock card.
type MovementRepository interface {
	Create(ctx context.Context, movements ...model.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, offset, limit int) ([]model.StockMovement, int64, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movements ...model.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&movements).Error
}

func (r *movementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, offset, limit int) ([]model.StockMovement, int64, error) {
	var rows []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("product_id = ?", productID).Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
