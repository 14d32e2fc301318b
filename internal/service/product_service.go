package service

//go:generate mockgen -source=product_service.go -destination=mocks/mock_product_service.go -package=mocks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/query"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type UnitRequest struct {
	SerialNumber string `json:"serialNumber"`
	ExpiryDate   string `json:"expiryDate" binding:"required"`
}

type CreateProductRequest struct {
	Name        string           `json:"name"`
	Brand       string           `json:"brand"`
	Type        string           `json:"type"`
	Flavor      string           `json:"flavor"`
	Weight      string           `json:"weight"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"costPrice"`
	Quantity    *int             `json:"quantity"`
	Units       []UnitRequest    `json:"units" binding:"omitempty,dive"`
	Description string           `json:"description"`
	Image       string           `json:"-"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Brand       *string          `json:"brand"`
	Type        *string          `json:"type"`
	Flavor      *string          `json:"flavor"`
	Weight      *string          `json:"weight"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"costPrice"`
	Quantity    *int             `json:"quantity"`
	Description *string          `json:"description"`
	Image       string           `json:"-"`
}

type AddUnitsRequest struct {
	Units []UnitRequest `json:"units" binding:"required,min=1,dive"`
}

type ProductService interface {
	ListProducts(ctx context.Context, filter query.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, actor string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor, id string) error
	DeleteUnit(ctx context.Context, actor, productID, unitID string) (*model.Product, error)
	AddUnits(ctx context.Context, actor, productID string, req AddUnitsRequest) (*model.Product, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	metadataRepo repository.MetadataRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	settings     Settings
	now          func() time.Time
}

func NewProductService(
	productRepo repository.ProductRepository,
	metadataRepo repository.MetadataRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	settings Settings,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		metadataRepo: metadataRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		settings:     settings.withDefaults(),
		now:          time.Now,
	}
}

const productNotFound = "Could not find product for this id."

func parseProductID(id string) (uuid.UUID, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.NotFound(productNotFound)
	}
	return pid, nil
}

func (s *productService) ListProducts(ctx context.Context, filter query.ProductFilter) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx, filter, s.now())
	if err != nil {
		return nil, internal(err, "Fetching products failed, please try again.")
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	pid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		return nil, lookup(err, productNotFound, "Something went wrong, could not find product.")
	}
	return product, nil
}

func (s *productService) validateType(ctx context.Context, productType string) error {
	if slices.Contains(model.BuiltinProductTypes, productType) {
		return nil
	}
	ok, err := s.metadataRepo.CategoryTypeExists(ctx, productType)
	if err != nil {
		return fmt.Errorf("failed to look up category: %w", err)
	}
	if !ok {
		return apperror.Validation("Invalid product type: " + productType)
	}
	return nil
}

func validateMoney(price, costPrice *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return apperror.Validation("Price must not be negative.")
	}
	if costPrice != nil && costPrice.IsNegative() {
		return apperror.Validation("Cost price must not be negative.")
	}
	return nil
}

func (r CreateProductRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Brand) == "" || strings.TrimSpace(r.Type) == "" ||
		strings.TrimSpace(r.Flavor) == "" || strings.TrimSpace(r.Weight) == "" || r.Price == nil || r.CostPrice == nil {
		return apperror.Validation("Missing required fields")
	}
	if r.Quantity != nil && *r.Quantity < 0 {
		return apperror.Validation("Quantity must not be negative.")
	}
	return validateMoney(r.Price, r.CostPrice)
}

func (s *productService) CreateProduct(ctx context.Context, actor string, req CreateProductRequest) (*model.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	product := &model.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		Type:        strings.TrimSpace(req.Type),
		Flavor:      strings.TrimSpace(req.Flavor),
		Weight:      strings.TrimSpace(req.Weight),
		Price:       *req.Price,
		CostPrice:   *req.CostPrice,
		Image:       req.Image,
		Description: req.Description,
		DateAdded:   now,
		UpdatedAt:   now,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.validateType(txCtx, product.Type); err != nil {
			return err
		}

		units, err := s.buildUnits(txCtx, product, req.Units, now)
		if err != nil {
			return err
		}
		product.Units = units

		if product.IsSerialized() {
			product.SyncQuantity()
		} else if req.Quantity != nil {
			product.Quantity = *req.Quantity
		}

		if err := s.productRepo.Create(txCtx, product); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperror.Validation("Serial number already exists in the system")
			}
			return fmt.Errorf("failed to create product: %w", err)
		}

		if err := s.movementRepo.Create(txCtx, model.StockMovement{
			ID:              uuid.New(),
			ProductID:       product.ID,
			Reason:          model.MovementProductCreated,
			QuantityChanged: product.Quantity,
			QuantityAfter:   product.Quantity,
			CreatedAt:       now,
		}); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionCreateProduct, product.ID.String(), product.Name, map[string]interface{}{
			"type":     product.Type,
			"brand":    product.Brand,
			"quantity": product.Quantity,
			"units":    len(product.Units),
		})
	})
	if err != nil {
		return nil, internal(err, "Creating product failed, please try again.")
	}

	publishStock(s.events, s.settings.LowStockThreshold, product)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, actor, id string, req UpdateProductRequest) (*model.Product, error) {
	pid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	if err := validateMoney(req.Price, req.CostPrice); err != nil {
		return nil, err
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, apperror.BadRequest("Invalid quantity value.")
	}

	var product *model.Product
	quantityChanged := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return lookup(err, productNotFound, "Something went wrong, could not update product.")
		}
		product = p

		applyString(&p.Name, req.Name)
		applyString(&p.Brand, req.Brand)
		applyString(&p.Flavor, req.Flavor)
		applyString(&p.Weight, req.Weight)
		applyString(&p.Description, req.Description)
		if req.Type != nil && strings.TrimSpace(*req.Type) != "" && strings.TrimSpace(*req.Type) != p.Type {
			if err := s.validateType(txCtx, strings.TrimSpace(*req.Type)); err != nil {
				return err
			}
			p.Type = strings.TrimSpace(*req.Type)
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.CostPrice != nil {
			p.CostPrice = *req.CostPrice
		}
		if req.Image != "" {
			p.Image = req.Image
		}

		now := s.now()
		p.UpdatedAt = now
		if err := s.productRepo.Update(txCtx, p); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		if req.Quantity != nil && *req.Quantity != p.Quantity {
			if err := s.adjustQuantity(txCtx, p, *req.Quantity, now); err != nil {
				return err
			}
			quantityChanged = true
		}

		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionUpdateProduct, p.ID.String(), p.Name, req)
	})
	if err != nil {
		return nil, internal(err, "Something went wrong, could not update product.")
	}

	if quantityChanged {
		publishStock(s.events, s.settings.LowStockThreshold, product)
	}
	return product, nil
}

// adjustQuantity is the only write path for a bulk product's counter outside order placement.
func (s *productService) adjustQuantity(ctx context.Context, p *model.Product, quantity int, now time.Time) error {
	return setBulkQuantity(ctx, s.productRepo, s.movementRepo, p, quantity, now)
}

func setBulkQuantity(ctx context.Context, products repository.ProductRepository, movements repository.MovementRepository, p *model.Product, quantity int, now time.Time) error {
	if p.IsSerialized() {
		return apperror.InvalidState("Quantity of a product with serialized units is derived from its available units.")
	}

	before := p.Quantity
	p.Quantity = quantity
	if err := products.UpdateQuantity(ctx, p.ID, quantity, now); err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	if err := movements.Create(ctx, model.StockMovement{
		ID:              uuid.New(),
		ProductID:       p.ID,
		Reason:          model.MovementAdjustment,
		QuantityChanged: quantity - before,
		QuantityAfter:   quantity,
		CreatedAt:       now,
	}); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (s *productService) DeleteProduct(ctx context.Context, actor, id string) error {
	pid, err := parseProductID(id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return lookup(err, productNotFound, "Something went wrong, could not delete product.")
		}
		if err := s.productRepo.Delete(txCtx, pid); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, s.now(), actor, model.ActionDeleteProduct, p.ID.String(), p.Name, map[string]interface{}{
			"units": len(p.Units),
		})
	})
	if err != nil {
		return internal(err, "Something went wrong, could not delete product.")
	}

	s.events.Publish(EventProductDeleted, map[string]interface{}{"productId": pid.String()})
	return nil
}

// DeleteUnit hard-deletes a unit whatever its status and re-derives the quantity.
func (s *productService) DeleteUnit(ctx context.Context, actor, productID, unitID string) (*model.Product, error) {
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(unitID)
	if err != nil {
		return nil, apperror.NotFound("Could not find unit for this id.")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return lookup(err, productNotFound, "Something went wrong, could not find product.")
		}
		product = p

		unit := p.Unit(uid)
		if unit == nil {
			return apperror.NotFound("Could not find unit for this id.")
		}
		removed := *unit

		if err := s.productRepo.DeleteUnit(txCtx, pid, uid); err != nil {
			return fmt.Errorf("failed to delete unit: %w", err)
		}
		p.Units = slices.DeleteFunc(p.Units, func(u model.ProductUnit) bool { return u.ID == uid })

		now := s.now()
		before := p.Quantity
		p.Quantity = p.AvailableCount()
		if p.Quantity != before {
			if err := s.productRepo.UpdateQuantity(txCtx, pid, p.Quantity, now); err != nil {
				return fmt.Errorf("failed to update quantity: %w", err)
			}
			if err := s.movementRepo.Create(txCtx, model.StockMovement{
				ID:              uuid.New(),
				ProductID:       pid,
				UnitID:          &uid,
				Reason:          model.MovementUnitRemoved,
				QuantityChanged: p.Quantity - before,
				QuantityAfter:   p.Quantity,
				CreatedAt:       now,
			}); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}

		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionDeleteUnit, p.ID.String(), p.Name, map[string]interface{}{
			"unitId":       uid.String(),
			"serialNumber": removed.SerialNumber,
			"status":       removed.Status,
		})
	})
	if err != nil {
		return nil, internal(err, "Something went wrong, could not delete unit.")
	}

	publishStock(s.events, s.settings.LowStockThreshold, product)
	return product, nil
}

// AddUnits restocks a product with new available units.
func (s *productService) AddUnits(ctx context.Context, actor, productID string, req AddUnitsRequest) (*model.Product, error) {
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if len(req.Units) == 0 {
		return nil, apperror.Validation("At least one unit is required.")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return lookup(err, productNotFound, "Something went wrong, could not find product.")
		}
		product = p

		if !p.IsSerialized() && p.Quantity > 0 {
			return apperror.InvalidState("Stock of this product is tracked by quantity; units cannot be added.")
		}

		now := s.now()
		units, err := s.buildUnits(txCtx, p, req.Units, now)
		if err != nil {
			return err
		}
		if err := s.productRepo.AddUnits(txCtx, units); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperror.Validation("Serial number already exists in the system")
			}
			return fmt.Errorf("failed to add units: %w", err)
		}
		p.Units = append(p.Units, units...)
		slices.SortStableFunc(p.Units, func(a, b model.ProductUnit) int { return a.ExpiryDate.Compare(b.ExpiryDate) })

		before := p.Quantity
		p.SyncQuantity()
		if err := s.productRepo.UpdateQuantity(txCtx, pid, p.Quantity, now); err != nil {
			return fmt.Errorf("failed to update quantity: %w", err)
		}
		if err := s.movementRepo.Create(txCtx, model.StockMovement{
			ID:              uuid.New(),
			ProductID:       pid,
			Reason:          model.MovementRestock,
			QuantityChanged: p.Quantity - before,
			QuantityAfter:   p.Quantity,
			CreatedAt:       now,
		}); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}

		serials := make([]string, 0, len(units))
		for _, u := range units {
			serials = append(serials, u.SerialNumber)
		}
		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionRestockProduct, p.ID.String(), p.Name, map[string]interface{}{
			"serialNumbers": serials,
		})
	})
	if err != nil {
		return nil, internal(err, "Adding units failed, please try again.")
	}

	publishStock(s.events, s.settings.LowStockThreshold, product)
	return product, nil
}

// buildUnits turns unit requests into available units of p. Blank serial numbers
// are generated; duplicates inside the request or against stored units are rejected.
func (s *productService) buildUnits(ctx context.Context, p *model.Product, reqs []UnitRequest, now time.Time) ([]model.ProductUnit, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	var provided []string
	for _, r := range reqs {
		if sn := strings.TrimSpace(r.SerialNumber); sn != "" {
			provided = append(provided, sn)
		}
	}
	if dups := duplicates(provided); len(dups) > 0 {
		return nil, apperror.Validation("Duplicate serial numbers found: " + strings.Join(dups, ", "))
	}

	taken := make(map[string]bool, len(reqs))
	for _, sn := range provided {
		taken[sn] = true
	}

	units := make([]model.ProductUnit, 0, len(reqs))
	serials := make([]string, 0, len(reqs))
	for _, r := range reqs {
		expiry, _, err := query.ParseTime(strings.TrimSpace(r.ExpiryDate))
		if err != nil {
			return nil, apperror.Validation("Invalid expiry date: " + r.ExpiryDate)
		}

		sn := strings.TrimSpace(r.SerialNumber)
		if sn == "" {
			sn = uniqueSerial(p.Type, p.Brand, now, taken)
		}
		serials = append(serials, sn)

		units = append(units, model.ProductUnit{
			ID:           uuid.New(),
			ProductID:    p.ID,
			SerialNumber: sn,
			ExpiryDate:   expiry,
			Status:       model.UnitStatusAvailable,
			CreatedAt:    now,
		})
	}

	existing, err := s.productRepo.FindExistingSerials(ctx, serials)
	if err != nil {
		return nil, fmt.Errorf("failed to check serial numbers: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperror.Validation(fmt.Sprintf("Serial number %q already exists in the system", existing[0]))
	}

	return units, nil
}

func duplicates(values []string) []string {
	seen := make(map[string]int, len(values))
	var dups []string
	for _, v := range values {
		seen[v]++
		if seen[v] == 2 {
			dups = append(dups, v)
		}
	}
	return dups
}

func uniqueSerial(productType, brand string, now time.Time, taken map[string]bool) string {
	start := rand.IntN(1000)
	for i := 0; i < 1000; i++ {
		sn := GenerateSerialNumber(productType, brand, now, start+i)
		if !taken[sn] {
			taken[sn] = true
			return sn
		}
	}
	// every suffix of this millisecond is used
	sn := GenerateSerialNumber(productType, brand, now, start) + "-" + uuid.NewString()[:8]
	taken[sn] = true
	return sn
}

// GenerateSerialNumber builds TYP-BR-<last 6 digits of unix millis><3 digit suffix>.
func GenerateSerialNumber(productType, brand string, now time.Time, suffix int) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("%s-%s-%s%03d", serialPrefix(productType, 3), serialPrefix(brand, 2), ms, suffix%1000)
}

func serialPrefix(s string, n int) string {
	r := []rune(strings.ToUpper(strings.TrimSpace(s)))
	if len(r) == 0 {
		return strings.Repeat("X", n)
	}
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func applyString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}
