package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"inventory-api/internal/query"
	"inventory-api/internal/service"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	productService service.ProductService
	uploader       *Uploader
}

func NewProductHandler(productService service.ProductService, uploader *Uploader) *ProductHandler {
	return &ProductHandler{productService: productService, uploader: uploader}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.DELETE("/:id/units/:unitId", h.DeleteUnit)
		products.POST("/:id/units", h.AddUnits)
	}
}

// ListProducts
// @Summary      List products
// @Description  Filters by category, brand, search text, low stock and near expiry
// @Tags         products
// @Produce      json
// @Param        category    query     string  false  "Product type"
// @Param        brand       query     string  false  "Brand"
// @Param        search      query     string  false  "Case-insensitive name, brand or flavor match"
// @Param        lowStock    query     int     false  "Quantity at or below this value"
// @Param        nearExpiry  query     int     false  "Months until expiry"
// @Param        sortBy      query     string  false  "Sort field"
// @Param        sortOrder   query     string  false  "asc or desc"
// @Success      200         {object}  response.Response{data=object}
// @Failure      422         {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter, err := query.ParseProductFilter(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}

	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"products": products}))
}

// GetProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"product": product}))
}

// CreateProduct
// @Summary      Create a product
// @Description  Accepts JSON or multipart form data with an optional image and a JSON "units" field
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Product payload"
// @Success      201      {object}  response.Response{data=object}
// @Failure      422      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if isMultipart(c) {
		var err error
		if req, err = createProductForm(c); err != nil {
			_ = c.Error(err)
			return
		}
		if req.Image, err = h.uploader.SaveImage(c); err != nil {
			_ = c.Error(err)
			return
		}
	} else if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actor(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"product": product}))
}

// UpdateProduct
// @Summary      Update a product
// @Description  Only the supplied fields change. Quantity applies to bulk products only.
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if isMultipart(c) {
		var err error
		if req, err = updateProductForm(c); err != nil {
			_ = c.Error(err)
			return
		}
		if req.Image, err = h.uploader.SaveImage(c); err != nil {
			_ = c.Error(err)
			return
		}
	} else if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"product": product}))
}

// DeleteProduct
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product deleted successfully."}))
}

// DeleteUnit
// @Summary      Remove one unit from a product
// @Tags         products
// @Produce      json
// @Param        id      path      string  true  "Product ID"
// @Param        unitId  path      string  true  "Unit ID"
// @Success      200     {object}  response.Response{data=object}
// @Failure      404     {object}  response.Response
// @Router       /api/products/{id}/units/{unitId} [delete]
func (h *ProductHandler) DeleteUnit(c *gin.Context) {
	product, err := h.productService.DeleteUnit(c.Request.Context(), actor(c), c.Param("id"), c.Param("unitId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"message": "Unit deleted successfully.",
		"product": product,
	}))
}

// AddUnits
// @Summary      Restock a serialized product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Product ID"
// @Param        payload  body      service.AddUnitsRequest  true  "New units"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{id}/units [post]
func (h *ProductHandler) AddUnits(c *gin.Context) {
	var req service.AddUnitsRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.AddUnits(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"product": product}))
}

func createProductForm(c *gin.Context) (service.CreateProductRequest, error) {
	req := service.CreateProductRequest{
		Name:        c.PostForm("name"),
		Brand:       c.PostForm("brand"),
		Type:        c.PostForm("type"),
		Flavor:      c.PostForm("flavor"),
		Weight:      c.PostForm("weight"),
		Description: c.PostForm("description"),
	}

	var err error
	if req.Price, err = formDecimal(c, "price"); err != nil {
		return req, err
	}
	if req.CostPrice, err = formDecimal(c, "costPrice"); err != nil {
		return req, err
	}
	if req.Quantity, err = formInt(c, "quantity"); err != nil {
		return req, err
	}
	if raw := strings.TrimSpace(c.PostForm("units")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Units); err != nil {
			return req, apperror.Validation(invalidInputs)
		}
	}
	return req, nil
}

func updateProductForm(c *gin.Context) (service.UpdateProductRequest, error) {
	req := service.UpdateProductRequest{
		Name:        formString(c, "name"),
		Brand:       formString(c, "brand"),
		Type:        formString(c, "type"),
		Flavor:      formString(c, "flavor"),
		Weight:      formString(c, "weight"),
		Description: formString(c, "description"),
	}

	var err error
	if req.Price, err = formDecimal(c, "price"); err != nil {
		return req, err
	}
	if req.CostPrice, err = formDecimal(c, "costPrice"); err != nil {
		return req, err
	}
	if req.Quantity, err = formInt(c, "quantity"); err != nil {
		return req, err
	}
	return req, nil
}

func formString(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func formDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperror.Validation(invalidInputs)
	}
	return &d, nil
}

func formInt(c *gin.Context, key string) (*int, error) {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperror.Validation(invalidInputs)
	}
	return &n, nil
}
