package repository

import (
	"context"

	"inventory-api/internal/model"
	"inventory-api/internal/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter query.OrderFilter) ([]model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	Recent(ctx context.Context, limit int) ([]model.Order, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.line_no ASC")
}

// Create inserts the order and its line items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Preload("Items", itemsInOrder).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter query.OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Scopes(filter.Scope()).
		Preload("Items", itemsInOrder).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Update writes the mutable columns of a placed order.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return affected(GetDB(ctx, r.db).Model(order).Omit(clause.Associations).
		Select("Status", "Notes", "UpdatedAt").
		Updates(order))
}

func (r *orderRepository) Recent(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items", itemsInOrder).
		Order("order_date DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Order{}).Where("status = ?", status).Count(&total).Error
	return total, err
}
