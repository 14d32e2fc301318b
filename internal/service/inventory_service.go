package service

//go:generate mockgen -source=inventory_service.go -destination=mocks/mock_inventory_service.go -package=mocks

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/query"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/pagination"
)

// Alert types accepted by GetAlerts
const (
	AlertTypeExpiry   = "expiry"
	AlertTypeLowStock = "lowStock"
)

type AlertsRequest struct {
	Type      string
	Months    []int
	Threshold *int
}

// Alerts holds expiry buckets keyed "<N>Month" and the low-stock list. It encodes
// as one flat object: {"1Month": [...], "3Month": [...], "lowStock": [...]}.
type Alerts struct {
	Expiry   map[string][]model.ExpiringUnit
	LowStock []model.Product
}

func (a Alerts) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Expiry)+1)
	for k, v := range a.Expiry {
		out[k] = v
	}
	if a.LowStock != nil {
		out["lowStock"] = a.LowStock
	}
	return json.Marshal(out)
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type InventoryService interface {
	GetAlerts(ctx context.Context, req AlertsRequest) (*Alerts, error)
	UpdateQuantity(ctx context.Context, actor, id string, req UpdateQuantityRequest) (*model.Product, error)
	ListMovements(ctx context.Context, productID string, page pagination.Params) ([]model.StockMovement, pagination.Meta, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	settings     Settings
	now          func() time.Time
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	settings Settings,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		settings:     settings.withDefaults(),
		now:          time.Now,
	}
}

// GetAlerts loads the available units expiring within the widest requested horizon
// once and buckets them per horizon; each bucket stays sorted by expiry.
func (s *inventoryService) GetAlerts(ctx context.Context, req AlertsRequest) (*Alerts, error) {
	if req.Type != "" && req.Type != AlertTypeExpiry && req.Type != AlertTypeLowStock {
		return nil, apperror.Validation("Invalid alert type: " + req.Type)
	}
	if req.Threshold != nil && *req.Threshold < 0 {
		return nil, apperror.Validation("Threshold must not be negative.")
	}

	alerts := &Alerts{}

	if req.Type == "" || req.Type == AlertTypeExpiry {
		months := req.Months
		if len(months) == 0 {
			months = query.DefaultAlertMonths
		}

		now := s.now()
		rows, err := s.productRepo.FindExpiringUnits(ctx, query.NewWindow(now, slices.Max(months)))
		if err != nil {
			return nil, internal(err, "Fetching inventory alerts failed, please try again.")
		}

		alerts.Expiry = make(map[string][]model.ExpiringUnit, len(months))
		for _, m := range months {
			w := query.NewWindow(now, m)
			bucket := make([]model.ExpiringUnit, 0)
			for _, row := range rows {
				if w.Contains(row.ExpiryDate) {
					bucket = append(bucket, row)
				}
			}
			alerts.Expiry[query.BucketKey(m)] = bucket
		}
	}

	if req.Type == "" || req.Type == AlertTypeLowStock {
		threshold := s.settings.LowStockThreshold
		if req.Threshold != nil {
			threshold = *req.Threshold
		}
		products, err := s.productRepo.ListLowStock(ctx, threshold)
		if err != nil {
			return nil, internal(err, "Fetching inventory alerts failed, please try again.")
		}
		if products == nil {
			products = []model.Product{}
		}
		alerts.LowStock = products
	}

	return alerts, nil
}

// UpdateQuantity sets the stock counter of a bulk product. Serialized products
// derive their quantity from units and are rejected.
func (s *inventoryService) UpdateQuantity(ctx context.Context, actor, id string, req UpdateQuantityRequest) (*model.Product, error) {
	if req.Quantity == nil || *req.Quantity < 0 {
		return nil, apperror.BadRequest("Invalid quantity value.")
	}
	pid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			return lookup(err, productNotFound, "Something went wrong, could not update quantity.")
		}
		product = p

		before := p.Quantity
		now := s.now()
		if err := setBulkQuantity(txCtx, s.productRepo, s.movementRepo, p, *req.Quantity, now); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, now, actor, model.ActionAdjustQuantity, p.ID.String(), p.Name, map[string]interface{}{
			"from": before,
			"to":   p.Quantity,
		})
	})
	if err != nil {
		return nil, internal(err, "Something went wrong, could not update quantity.")
	}

	publishStock(s.events, s.settings.LowStockThreshold, product)
	return product, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID string, page pagination.Params) ([]model.StockMovement, pagination.Meta, error) {
	pid, err := parseProductID(productID)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
		return nil, pagination.Meta{}, lookup(err, productNotFound, "Fetching stock movements failed, please try again.")
	}

	rows, total, err := s.movementRepo.ListByProduct(ctx, pid, page.Offset, page.Limit)
	if err != nil {
		return nil, pagination.Meta{}, internal(err, "Fetching stock movements failed, please try again.")
	}
	if rows == nil {
		rows = []model.StockMovement{}
	}
	return rows, page.Meta(total), nil
}
