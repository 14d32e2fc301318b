package repository

import (
	"context"

	"inventory-api/internal/model"
	"inventory-api/internal/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesRepository interface {
	Upsert(ctx context.Context, entry *model.SalesData) error
	List(ctx context.Context, filter query.SalesFilter) ([]model.SalesData, error)
	MonthTotals(ctx context.Context, month string) (model.MonthTotals, error)
	TopByMonth(ctx context.Context, month string, limit int) ([]model.SalesData, error)
}

type salesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) SalesRepository {
	return &salesRepository{db: db}
}

// upsertQuery inserts the rollup or adds its quantity and revenue to the existing
// (product_id, month) row in a single statement.
func upsertQuery(db *gorm.DB, entry *model.SalesData) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity_sold": gorm.Expr("sales_data.quantity_sold + EXCLUDED.quantity_sold"),
			"revenue":       gorm.Expr("sales_data.revenue + EXCLUDED.revenue"),
			"updated_at":    gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(entry)
}

func (r *salesRepository) Upsert(ctx context.Context, entry *model.SalesData) error {
	return upsertQuery(GetDB(ctx, r.db), entry).Error
}

func (r *salesRepository) List(ctx context.Context, filter query.SalesFilter) ([]model.SalesData, error) {
	var rows []model.SalesData
	if err := GetDB(ctx, r.db).Model(&model.SalesData{}).Scopes(filter.Scope()).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *salesRepository) MonthTotals(ctx context.Context, month string) (model.MonthTotals, error) {
	var totals model.MonthTotals
	err := GetDB(ctx, r.db).Model(&model.SalesData{}).
		Select("COALESCE(SUM(revenue), 0) AS revenue, COALESCE(SUM(quantity_sold), 0) AS quantity").
		Where("month = ?", month).
		Scan(&totals).Error
	return totals, err
}

func (r *salesRepository) TopByMonth(ctx context.Context, month string, limit int) ([]model.SalesData, error) {
	var rows []model.SalesData
	if err := GetDB(ctx, r.db).
		Where("month = ?", month).
		Order("quantity_sold DESC, revenue DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
