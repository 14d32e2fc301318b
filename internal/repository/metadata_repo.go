package repository

//go:generate mockgen -source=metadata_repo.go -destination=mocks/mock_metadata_repo.go -package=mocks

import (
	"context"

	"inventory-api/internal/model"

	"gorm.io/gorm"
)

type MetadataRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	CategoryTypeExists(ctx context.Context, categoryType string) (bool, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	CreateBrand(ctx context.Context, brand *model.Brand) error
}

type metadataRepository struct {
	db *gorm.DB
}

func NewMetadataRepository(db *gorm.DB) MetadataRepository {
	return &metadataRepository{db: db}
}

func (r *metadataRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *metadataRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *metadataRepository) CategoryTypeExists(ctx context.Context, categoryType string) (bool, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Category{}).Where("type = ?", categoryType).Count(&n).Error
	return n > 0, err
}

func (r *metadataRepository) ListBrands(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *metadataRepository) CreateBrand(ctx context.Context, brand *model.Brand) error {
	return GetDB(ctx, r.db).Create(brand).Error
}
