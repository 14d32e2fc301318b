package handler

import (
	"net/http"

	"inventory-api/internal/service"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type MetadataHandler struct {
	metadataService service.MetadataService
	uploader        *Uploader
}

func NewMetadataHandler(metadataService service.MetadataService, uploader *Uploader) *MetadataHandler {
	return &MetadataHandler{metadataService: metadataService, uploader: uploader}
}

func (h *MetadataHandler) RegisterRoutes(router *gin.RouterGroup) {
	metadata := router.Group("/metadata")
	{
		metadata.GET("/categories", h.ListCategories)
		metadata.POST("/categories", h.CreateCategory)
		metadata.GET("/brands", h.ListBrands)
		metadata.POST("/brands", h.CreateBrand)
	}
}

// ListCategories
// @Summary      List categories
// @Tags         metadata
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/metadata/categories [get]
func (h *MetadataHandler) ListCategories(c *gin.Context) {
	categories, err := h.metadataService.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"categories": categories}))
}

// CreateCategory
// @Summary      Create a category
// @Tags         metadata
// @Accept       json,mpfd
// @Produce      json
// @Param        payload  body      service.CreateCategoryRequest  true  "Category payload"
// @Success      201      {object}  response.Response{data=object}
// @Failure      422      {object}  response.Response
// @Router       /api/metadata/categories [post]
func (h *MetadataHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	image, ok := h.bind(c, &req)
	if !ok {
		return
	}
	req.Image = image

	category, err := h.metadataService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"category": category}))
}

// ListBrands
// @Summary      List brands
// @Tags         metadata
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/metadata/brands [get]
func (h *MetadataHandler) ListBrands(c *gin.Context) {
	brands, err := h.metadataService.ListBrands(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"brands": brands}))
}

// CreateBrand
// @Summary      Create a brand
// @Tags         metadata
// @Accept       json,mpfd
// @Produce      json
// @Param        payload  body      service.CreateBrandRequest  true  "Brand payload"
// @Success      201      {object}  response.Response{data=object}
// @Failure      422      {object}  response.Response
// @Router       /api/metadata/brands [post]
func (h *MetadataHandler) CreateBrand(c *gin.Context) {
	var req service.CreateBrandRequest
	image, ok := h.bind(c, &req)
	if !ok {
		return
	}
	req.Image = image

	brand, err := h.metadataService.CreateBrand(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"brand": brand}))
}

// bind reads JSON or form fields into obj and stores an optional image.
func (h *MetadataHandler) bind(c *gin.Context, obj interface{}) (string, bool) {
	if !isMultipart(c) {
		return "", bindJSON(c, obj)
	}
	if err := c.ShouldBind(obj); err != nil {
		_ = c.Error(apperror.Validation(invalidInputs))
		return "", false
	}
	image, err := h.uploader.SaveImage(c)
	if err != nil {
		_ = c.Error(err)
		return "", false
	}
	return image, true
}
