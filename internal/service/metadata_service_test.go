package service

import (
	"context"
	"errors"
	"testing"

	"inventory-api/internal/model"
	"inventory-api/internal/repository/mocks"
	"inventory-api/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func TestMetadataService_CreateCategory(t *testing.T) {
	type testCase struct {
		name      string
		req       CreateCategoryRequest
		setupMock func(m *mocks.MockMetadataRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			req:  CreateCategoryRequest{Name: "Gummies", Type: " gummies "},
			setupMock: func(m *mocks.MockMetadataRepository) {
				m.EXPECT().CategoryTypeExists(gomock.Any(), "gummies").Return(false, nil)
				m.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *model.Category) error {
					assert.Equal(t, "gummies", c.Type)
					return nil
				})
			},
		},
		{
			name:    "MissingType",
			req:     CreateCategoryRequest{Name: "Gummies"},
			wantErr: apperror.ErrValidation,
		},
		{
			name: "DuplicateType",
			req:  CreateCategoryRequest{Name: "Gummies", Type: "gummies"},
			setupMock: func(m *mocks.MockMetadataRepository) {
				m.EXPECT().CategoryTypeExists(gomock.Any(), "gummies").Return(true, nil)
			},
			wantErr: apperror.ErrValidation,
		},
		{
			name: "ConcurrentDuplicate",
			req:  CreateCategoryRequest{Name: "Gummies", Type: "gummies"},
			setupMock: func(m *mocks.MockMetadataRepository) {
				m.EXPECT().CategoryTypeExists(gomock.Any(), "gummies").Return(false, nil)
				m.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).Return(gorm.ErrDuplicatedKey)
			},
			wantErr: apperror.ErrValidation,
		},
		{
			name: "RepoError",
			req:  CreateCategoryRequest{Name: "Gummies", Type: "gummies"},
			setupMock: func(m *mocks.MockMetadataRepository) {
				m.EXPECT().CategoryTypeExists(gomock.Any(), gomock.Any()).Return(false, errors.New("db error"))
			},
			wantErr: apperror.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockMetadataRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := NewMetadataService(repo).CreateCategory(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Gummies", got.Name)
		})
	}
}

func TestMetadataService_Brands(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMetadataRepository(ctrl)
	svc := NewMetadataService(repo)

	repo.EXPECT().ListBrands(gomock.Any()).Return(nil, nil)
	brands, err := svc.ListBrands(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, brands)
	assert.Empty(t, brands)

	_, err = svc.CreateBrand(context.Background(), CreateBrandRequest{Name: "  "})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	repo.EXPECT().CreateBrand(gomock.Any(), gomock.Any()).Return(gorm.ErrDuplicatedKey)
	_, err = svc.CreateBrand(context.Background(), CreateBrandRequest{Name: "Optimum"})
	require.Error(t, err)
	assert.Equal(t, "Brand already exists.", err.Error())

	repo.EXPECT().CreateBrand(gomock.Any(), gomock.Any()).Return(nil)
	brand, err := svc.CreateBrand(context.Background(), CreateBrandRequest{Name: "Optimum", Logo: "on.png"})
	require.NoError(t, err)
	assert.Equal(t, "on.png", brand.Logo)
}
