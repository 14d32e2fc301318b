package service

import (
	"time"

	"inventory-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	store  *memStore
	events *recordingPublisher

	products  *productService
	orders    *orderService
	inventory *inventoryService
	analytics *analyticsService
}

func newHarness() *harness {
	store := newMemStore()
	events := &recordingPublisher{}
	settings := Settings{LowStockThreshold: 10, NearExpiryMonths: 3}
	clock := func() time.Time { return testNow }

	products := fakeProducts{store}
	orders := fakeOrders{store}
	sales := fakeSales{store}
	movements := fakeMovements{store}
	audits := fakeAudits{store}
	tx := fakeTx{store}

	h := &harness{
		store:     store,
		events:    events,
		products:  NewProductService(products, fakeMetadata{store}, movements, audits, tx, events, settings).(*productService),
		orders:    NewOrderService(products, orders, sales, movements, audits, tx, events, settings).(*orderService),
		inventory: NewInventoryService(products, movements, audits, tx, events, settings).(*inventoryService),
		analytics: NewAnalyticsService(products, orders, sales, settings).(*analyticsService),
	}
	h.products.now = clock
	h.orders.now = clock
	h.inventory.now = clock
	h.analytics.now = clock
	return h
}

func unit(productID uuid.UUID, serial string, expiresIn time.Duration, status string) model.ProductUnit {
	return model.ProductUnit{
		ID:           uuid.New(),
		ProductID:    productID,
		SerialNumber: serial,
		ExpiryDate:   testNow.Add(expiresIn),
		Status:       status,
		CreatedAt:    testNow.AddDate(0, -1, 0),
	}
}

// seedSerialized stores a whey product with three available units expiring in 30, 60 and 90 days.
func (h *harness) seedSerialized() *model.Product {
	id := uuid.New()
	p := &model.Product{
		ID:        id,
		Name:      "Gold Standard Whey",
		Brand:     "ON",
		Type:      model.ProductTypeWheyProtein,
		Flavor:    "Chocolate",
		Weight:    "2lb",
		Price:     decimal.RequireFromString("59.99"),
		CostPrice: decimal.RequireFromString("40.00"),
		Units: []model.ProductUnit{
			unit(id, "WHE-ON-000001", 30*24*time.Hour, model.UnitStatusAvailable),
			unit(id, "WHE-ON-000002", 60*24*time.Hour, model.UnitStatusAvailable),
			unit(id, "WHE-ON-000003", 90*24*time.Hour, model.UnitStatusAvailable),
		},
		DateAdded: testNow.AddDate(0, -1, 0),
	}
	p.SyncQuantity()
	h.store.addProduct(p)
	return p
}

// seedBulk stores a product tracked by a bare counter.
func (h *harness) seedBulk(quantity int) *model.Product {
	p := &model.Product{
		ID:        uuid.New(),
		Name:      "Creatine Monohydrate",
		Brand:     "MyProtein",
		Type:      model.ProductTypeCreatine,
		Flavor:    "Unflavored",
		Weight:    "500g",
		Price:     decimal.RequireFromString("10.00"),
		CostPrice: decimal.RequireFromString("6.00"),
		Quantity:  quantity,
		DateAdded: testNow.AddDate(0, -1, 0),
	}
	h.store.addProduct(p)
	return p
}

func orderRequest(items ...OrderItemRequest) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:  "Jane Doe",
		CustomerPhone: "0900000000",
		SoldBy:        "staff-1",
		Products:      items,
	}
}

func unitItem(p *model.Product, i int) OrderItemRequest {
	return OrderItemRequest{ProductID: p.ID.String(), UnitID: p.Units[i].ID.String()}
}

func qtyItem(p *model.Product, n int) OrderItemRequest {
	return OrderItemRequest{ProductID: p.ID.String(), Quantity: n}
}
