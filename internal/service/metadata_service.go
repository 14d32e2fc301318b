package service

import (
	"context"
	"strings"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"

	"github.com/google/uuid"
)

type CreateCategoryRequest struct {
	Name        string `json:"name" form:"name"`
	Type        string `json:"type" form:"type"`
	Description string `json:"description" form:"description"`
	Image       string `json:"-" form:"-"`
}

type CreateBrandRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Logo        string `json:"logo" form:"logo"`
	Image       string `json:"-" form:"-"`
}

type MetadataService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*model.Category, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	CreateBrand(ctx context.Context, req CreateBrandRequest) (*model.Brand, error)
}

type metadataService struct {
	repo repository.MetadataRepository
	now  func() time.Time
}

func NewMetadataService(repo repository.MetadataRepository) MetadataService {
	return &metadataService{repo: repo, now: time.Now}
}

func (s *metadataService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Internal("Fetching categories failed, please try again.", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *metadataService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	categoryType := strings.TrimSpace(req.Type)
	if name == "" || categoryType == "" {
		return nil, apperror.Validation("Name and type are required.")
	}

	exists, err := s.repo.CategoryTypeExists(ctx, categoryType)
	if err != nil {
		return nil, apperror.Internal("Creating category failed, please try again.", err)
	}
	if exists {
		return nil, apperror.Validation("Category type already exists.")
	}

	category := &model.Category{
		ID:          uuid.New(),
		Name:        name,
		Type:        categoryType,
		Description: req.Description,
		Image:       req.Image,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Validation("Category type already exists.")
		}
		return nil, apperror.Internal("Creating category failed, please try again.", err)
	}
	return category, nil
}

func (s *metadataService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, apperror.Internal("Fetching brands failed, please try again.", err)
	}
	if brands == nil {
		brands = []model.Brand{}
	}
	return brands, nil
}

func (s *metadataService) CreateBrand(ctx context.Context, req CreateBrandRequest) (*model.Brand, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Brand name is required.")
	}

	brand := &model.Brand{
		ID:          uuid.New(),
		Name:        name,
		Description: req.Description,
		Logo:        req.Logo,
		Image:       req.Image,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Validation("Brand already exists.")
		}
		return nil, apperror.Internal("Creating brand failed, please try again.", err)
	}
	return brand, nil
}
