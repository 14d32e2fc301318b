package service

//go:generate mockgen -source=order_service.go -destination=mocks/mock_order_service.go -package=mocks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
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
type OrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	UnitID    string `json:"unitId"`
	Quantity  int    `json:"quantity" binding:"omitempty,gte=1"`
}

type CreateOrderRequest struct {
	CustomerName   string             `json:"customerName" binding:"required"`
	CustomerPhone  string             `json:"customerPhone" binding:"required"`
	CustomerEmail  string             `json:"customerEmail" binding:"omitempty,email"`
	Products       []OrderItemRequest `json:"products" binding:"required,min=1,dive"`
	DiscountAmount *decimal.Decimal   `json:"discountAmount"`
	SoldBy         string             `json:"soldBy" binding:"required"`
	Notes          string             `json:"notes"`
	OrderDate      *time.Time         `json:"orderDate"`
}

type UpdateOrderRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, actor string, req CreateOrderRequest) (*model.Order, error)
	ListOrders(ctx context.Context, filter query.OrderFilter) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrder(ctx context.Context, actor, id string, req UpdateOrderRequest) (*model.Order, error)
}

type orderService struct {
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	salesRepo    repository.SalesRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	settings     Settings
	now          func() time.Time
}

func NewOrderService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	salesRepo repository.SalesRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	settings Settings,
) OrderService {
	return &orderService{
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		salesRepo:    salesRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		settings:     settings.withDefaults(),
		now:          time.Now,
	}
}

const orderNotFound = "Could not find order for this id."

func (r CreateOrderRequest) validate() error {
	if strings.TrimSpace(r.CustomerName) == "" || strings.TrimSpace(r.CustomerPhone) == "" || strings.TrimSpace(r.SoldBy) == "" {
		return apperror.Validation("Customer name, customer phone and soldBy are required.")
	}
	if len(r.Products) == 0 {
		return apperror.Validation("An order needs at least one product.")
	}
	for _, item := range r.Products {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperror.Validation("Every order item needs a productId.")
		}
		if item.UnitID == "" && item.Quantity < 1 {
			return apperror.Validation("Every order item needs a unitId or a quantity of at least 1.")
		}
	}
	if r.DiscountAmount != nil && r.DiscountAmount.IsNegative() {
		return apperror.Validation("Discount amount must not be negative.")
	}
	return nil
}

// orderPlan is the fully validated order: line items plus the state transitions
// to apply, computed from the locked products before anything is written.
type orderPlan struct {
	products   map[uuid.UUID]*model.Product
	productIDs []uuid.UUID
	lines      []model.OrderItem
	units      map[uuid.UUID][]uuid.UUID // explicit units sold per product
	bulk       map[uuid.UUID]int         // quantity-based demand per product
	total      decimal.Decimal
}

// CreateOrder validates the whole request against locked products, then persists
// the order, sells the units, decrements stock and rolls up sales, all in one
// transaction.
func (s *orderService) CreateOrder(ctx context.Context, actor string, req CreateOrderRequest) (*model.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if req.DiscountAmount != nil {
		discount = *req.DiscountAmount
	}

	var (
		order   *model.Order
		touched []*model.Product
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.now()

		plan, err := s.plan(txCtx, req.Products, now)
		if err != nil {
			return err
		}
		if discount.GreaterThan(plan.total) {
			return apperror.Validation("Discount amount must not exceed the order total.")
		}

		orderDate := now
		if req.OrderDate != nil && !req.OrderDate.IsZero() {
			orderDate = req.OrderDate.UTC()
		}

		order = &model.Order{
			ID:             uuid.New(),
			CustomerName:   strings.TrimSpace(req.CustomerName),
			CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
			CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
			Items:          plan.lines,
			TotalAmount:    plan.total,
			DiscountAmount: discount,
			FinalAmount:    plan.total.Sub(discount),
			Status:         model.OrderStatusPending,
			OrderDate:      orderDate,
			SoldBy:         strings.TrimSpace(req.SoldBy),
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for i := range order.Items {
			order.Items[i].ID = uuid.New()
			order.Items[i].OrderID = order.ID
			order.Items[i].LineNo = i + 1
		}

		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		touched, err = s.applyStock(txCtx, plan, order.ID, now)
		if err != nil {
			return err
		}

		if err := s.rollupSales(txCtx, order, now); err != nil {
			return err
		}

		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionCreateOrder, order.ID.String(), order.CustomerName, map[string]interface{}{
			"items":       len(order.Items),
			"totalAmount": order.TotalAmount,
			"finalAmount": order.FinalAmount,
			"soldBy":      order.SoldBy,
		})
	})
	if err != nil {
		return nil, internal(err, "Creating order failed, please try again.")
	}

	slog.Info("order created", "orderId", order.ID, "items", len(order.Items), "finalAmount", order.FinalAmount.String())
	s.events.Publish(EventOrderCreated, map[string]interface{}{
		"orderId":     order.ID.String(),
		"finalAmount": order.FinalAmount,
		"soldBy":      order.SoldBy,
	})
	publishStock(s.events, s.settings.LowStockThreshold, touched...)

	return order, nil
}

// plan locks every referenced product (in id order, so concurrent orders cannot
// deadlock) and validates every item against that snapshot.
func (s *orderService) plan(ctx context.Context, items []OrderItemRequest, now time.Time) (*orderPlan, error) {
	p := &orderPlan{
		products: make(map[uuid.UUID]*model.Product),
		units:    make(map[uuid.UUID][]uuid.UUID),
		bulk:     make(map[uuid.UUID]int),
		total:    decimal.Zero,
	}

	itemProducts := make([]uuid.UUID, len(items))
	for i, item := range items {
		pid, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, apperror.NotFound(fmt.Sprintf("Product with id %s not found.", item.ProductID))
		}
		itemProducts[i] = pid
		if !slices.Contains(p.productIDs, pid) {
			p.productIDs = append(p.productIDs, pid)
		}
	}

	locking := slices.Clone(p.productIDs)
	slices.SortFunc(locking, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	for _, pid := range locking {
		product, err := s.productRepo.FindByIDForUpdate(ctx, pid)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apperror.NotFound(fmt.Sprintf("Product with id %s not found.", pid))
			}
			return nil, fmt.Errorf("failed to load product %s: %w", pid, err)
		}
		p.products[pid] = product
	}

	reserved := make(map[uuid.UUID]bool)
	var bulkOrder []uuid.UUID
	for i, item := range items {
		product := p.products[itemProducts[i]]

		if item.UnitID == "" {
			if p.bulk[product.ID] == 0 {
				bulkOrder = append(bulkOrder, product.ID)
			}
			p.bulk[product.ID] += item.Quantity
			line := model.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				Price:       product.Price,
			}
			p.lines = append(p.lines, line)
			p.total = p.total.Add(line.LineTotal())
			continue
		}

		uid, err := uuid.Parse(strings.TrimSpace(item.UnitID))
		if err != nil {
			return nil, apperror.NotFound(fmt.Sprintf("Unit with id %s not found.", item.UnitID))
		}
		unit := product.Unit(uid)
		if unit == nil {
			return nil, apperror.NotFound(fmt.Sprintf("Unit with id %s not found.", item.UnitID))
		}
		if reserved[uid] {
			return nil, apperror.InvalidState(fmt.Sprintf("Unit %s is listed more than once.", unit.SerialNumber))
		}
		if !unit.Sellable(now) {
			return nil, apperror.InvalidState(fmt.Sprintf("Unit %s is not available (status: %s).", unit.SerialNumber, unit.EffectiveStatus(now)))
		}
		reserved[uid] = true
		p.units[product.ID] = append(p.units[product.ID], uid)

		unitID := uid
		line := model.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			UnitID:       &unitID,
			SerialNumber: unit.SerialNumber,
			Quantity:     1,
			Price:        product.Price,
		}
		p.lines = append(p.lines, line)
		p.total = p.total.Add(line.LineTotal())
	}

	for _, pid := range bulkOrder {
		product := p.products[pid]
		available := product.Quantity
		if product.IsSerialized() {
			available = len(fefoUnits(product, reserved, now))
		}
		if p.bulk[pid] > available {
			return nil, apperror.InvalidState(fmt.Sprintf("Insufficient stock for %s. Available: %d", product.Name, available))
		}
	}

	return p, nil
}

// fefoUnits lists the sellable units of p not already reserved, soonest expiry first.
func fefoUnits(p *model.Product, reserved map[uuid.UUID]bool, now time.Time) []*model.ProductUnit {
	var out []*model.ProductUnit
	for i := range p.Units {
		u := &p.Units[i]
		if u.Sellable(now) && !reserved[u.ID] {
			out = append(out, u)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.ProductUnit) int { return a.ExpiryDate.Compare(b.ExpiryDate) })
	return out
}

func (s *orderService) applyStock(ctx context.Context, plan *orderPlan, orderID uuid.UUID, now time.Time) ([]*model.Product, error) {
	touched := make([]*model.Product, 0, len(plan.productIDs))

	for _, pid := range plan.productIDs {
		product := plan.products[pid]
		before := product.Quantity

		reserved := make(map[uuid.UUID]bool)
		sold := slices.Clone(plan.units[pid])
		for _, uid := range sold {
			reserved[uid] = true
		}

		if product.IsSerialized() {
			if n := plan.bulk[pid]; n > 0 {
				for _, u := range fefoUnits(product, reserved, now)[:n] {
					sold = append(sold, u.ID)
				}
			}

			changed := make([]model.ProductUnit, 0, len(sold))
			for _, uid := range sold {
				u := product.Unit(uid)
				soldAt := now
				oid := orderID
				u.Status = model.UnitStatusSold
				u.SoldDate = &soldAt
				u.OrderID = &oid
				changed = append(changed, *u)
			}
			if err := s.productRepo.UpdateUnits(ctx, changed); err != nil {
				return nil, fmt.Errorf("failed to update units of %s: %w", pid, err)
			}
			product.SyncQuantity()
		} else {
			product.Quantity -= plan.bulk[pid]
		}

		if err := s.productRepo.UpdateQuantity(ctx, pid, product.Quantity, now); err != nil {
			return nil, fmt.Errorf("failed to update quantity of %s: %w", pid, err)
		}

		oid := orderID
		if err := s.movementRepo.Create(ctx, model.StockMovement{
			ID:              uuid.New(),
			ProductID:       pid,
			OrderID:         &oid,
			Reason:          model.MovementOrderSale,
			QuantityChanged: product.Quantity - before,
			QuantityAfter:   product.Quantity,
			CreatedAt:       now,
		}); err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}

		touched = append(touched, product)
	}

	return touched, nil
}

// rollupSales upserts one SalesData row per product for the order's month.
func (s *orderService) rollupSales(ctx context.Context, order *model.Order, now time.Time) error {
	month := model.MonthKey(order.OrderDate)

	var ids []uuid.UUID
	entries := make(map[uuid.UUID]*model.SalesData)
	for _, line := range order.Items {
		e, ok := entries[line.ProductID]
		if !ok {
			e = &model.SalesData{
				ID:          uuid.New(),
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Revenue:     decimal.Zero,
				Month:       month,
				Year:        order.OrderDate.UTC().Year(),
				UpdatedAt:   now,
			}
			entries[line.ProductID] = e
			ids = append(ids, line.ProductID)
		}
		e.QuantitySold += line.Quantity
		e.Revenue = e.Revenue.Add(line.LineTotal())
	}

	for _, id := range ids {
		if err := s.salesRepo.Upsert(ctx, entries[id]); err != nil {
			return fmt.Errorf("failed to update sales data: %w", err)
		}
	}
	return nil
}

func (s *orderService) ListOrders(ctx context.Context, filter query.OrderFilter) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, internal(err, "Fetching orders failed, please try again.")
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	oid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound(orderNotFound)
	}
	order, err := s.orderRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, lookup(err, orderNotFound, "Something went wrong, could not find order.")
	}
	return order, nil
}

// UpdateOrder changes status and notes; the rest of an order is immutable.
func (s *orderService) UpdateOrder(ctx context.Context, actor, id string, req UpdateOrderRequest) (*model.Order, error) {
	oid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound(orderNotFound)
	}
	if req.Status != nil && *req.Status != "" && !model.IsValidOrderStatus(*req.Status) {
		return nil, apperror.Validation("Invalid order status: " + *req.Status)
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orderRepo.FindByID(txCtx, oid)
		if err != nil {
			return lookup(err, orderNotFound, "Something went wrong, could not update order.")
		}
		order = o

		if req.Status != nil && *req.Status != "" {
			o.Status = *req.Status
		}
		if req.Notes != nil {
			o.Notes = *req.Notes
		}
		now := s.now()
		o.UpdatedAt = now

		if err := s.orderRepo.Update(txCtx, o); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionUpdateOrder, o.ID.String(), o.CustomerName, req)
	})
	if err != nil {
		return nil, internal(err, "Something went wrong, could not update order.")
	}
	return order, nil
}
