package repository

import (
	"context"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter query.ProductFilter, now time.Time) ([]model.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, at time.Time) error
	AddUnits(ctx context.Context, units []model.ProductUnit) error
	UpdateUnits(ctx context.Context, units []model.ProductUnit) error
	DeleteUnit(ctx context.Context, productID, unitID uuid.UUID) error
	FindExistingSerials(ctx context.Context, serials []string) ([]string, error)
	FindExpiringUnits(ctx context.Context, window query.Window) ([]model.ExpiringUnit, error)
	CountExpiringUnits(ctx context.Context, window query.Window) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func unitsByExpiry(db *gorm.DB) *gorm.DB {
	return db.Order("product_units.expiry_date ASC, product_units.serial_number ASC")
}

// Create inserts the product together with its units.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

// Update writes the scalar columns only; units and quantity have their own paths.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	res := GetDB(ctx, r.db).Model(product).Omit(clause.Associations).
		Select("Name", "Brand", "Type", "Flavor", "Weight", "Price", "CostPrice", "Image", "Description", "UpdatedAt").
		Updates(product)
	return affected(res)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("product_id = ?", id).Delete(&model.ProductUnit{}).Error; err != nil {
		return err
	}
	return affected(db.Where("id = ?", id).Delete(&model.Product{}))
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Units", unitsByExpiry).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate locks the product row for the rest of the transaction and
// loads its units. Every unit mutation takes this lock first.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	db := GetDB(ctx, r.db)

	var product model.Product
	if err := forUpdate(db).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	if err := unitsByExpiry(db).Where("product_id = ?", id).Find(&product.Units).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter query.ProductFilter, now time.Time) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Model(&model.Product{}).
		Scopes(filter.Scope(now)).
		Preload("Units", unitsByExpiry).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).
		Where("quantity <= ?", threshold).
		Order("quantity ASC, name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Count(&total).Error
	return total, err
}

func (r *productRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("quantity <= ?", threshold).Count(&total).Error
	return total, err
}

func (r *productRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, at time.Time) error {
	return affected(GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": at}))
}

func (r *productRepository) AddUnits(ctx context.Context, units []model.ProductUnit) error {
	if len(units) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&units).Error
}

// UpdateUnits persists the lifecycle columns of each unit.
func (r *productRepository) UpdateUnits(ctx context.Context, units []model.ProductUnit) error {
	db := GetDB(ctx, r.db)
	for _, u := range units {
		res := db.Model(&model.ProductUnit{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
			"status":    u.Status,
			"sold_date": u.SoldDate,
			"order_id":  u.OrderID,
		})
		if err := affected(res); err != nil {
			return err
		}
	}
	return nil
}

func (r *productRepository) DeleteUnit(ctx context.Context, productID, unitID uuid.UUID) error {
	return affected(GetDB(ctx, r.db).
		Where("id = ? AND product_id = ?", unitID, productID).
		Delete(&model.ProductUnit{}))
}

func (r *productRepository) FindExistingSerials(ctx context.Context, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var existing []string
	err := GetDB(ctx, r.db).Model(&model.ProductUnit{}).
		Where("serial_number IN ?", serials).
		Order("serial_number").
		Pluck("serial_number", &existing).Error
	return existing, err
}

func expiringUnits(db *gorm.DB, w query.Window) *gorm.DB {
	return db.Table("product_units").
		Joins("JOIN products ON products.id = product_units.product_id").
		Where("product_units.status = ? AND product_units.expiry_date > ? AND product_units.expiry_date <= ?",
			model.UnitStatusAvailable, w.From, w.To)
}

// FindExpiringUnits returns one row per available unit expiring inside the window,
// soonest first.
func (r *productRepository) FindExpiringUnits(ctx context.Context, w query.Window) ([]model.ExpiringUnit, error) {
	var rows []model.ExpiringUnit
	err := expiringUnits(GetDB(ctx, r.db), w).
		Select("products.id AS product_id, products.name, products.brand, products.type, products.flavor, products.weight, products.price, products.image, " +
			"product_units.id AS unit_id, product_units.serial_number, product_units.expiry_date, 1 AS quantity").
		Order("product_units.expiry_date ASC, product_units.serial_number ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *productRepository) CountExpiringUnits(ctx context.Context, w query.Window) (int64, error) {
	var total int64
	err := expiringUnits(GetDB(ctx, r.db), w).Count(&total).Error
	return total, err
}
