package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errStorage = errors.New("storage unavailable")

// memStore is an in-memory stand-in for the database. RunInTx snapshots it and
// restores the snapshot when the callback fails.
type memStore struct {
	products   map[uuid.UUID]*model.Product
	orders     map[uuid.UUID]*model.Order
	sales      map[string]*model.SalesData
	movements  []model.StockMovement
	audits     []model.AuditLog
	categories []model.Category

	// failOn makes the named operation return the error once it is reached.
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]*model.Product),
		orders:   make(map[uuid.UUID]*model.Order),
		sales:    make(map[string]*model.SalesData),
		failOn:   make(map[string]error),
	}
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

func cloneProduct(p *model.Product) *model.Product {
	c := *p
	c.Units = slices.Clone(p.Units)
	return &c
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}

type memSnapshot struct {
	products  map[uuid.UUID]*model.Product
	orders    map[uuid.UUID]*model.Order
	sales     map[string]*model.SalesData
	movements []model.StockMovement
	audits    []model.AuditLog
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		products:  make(map[uuid.UUID]*model.Product, len(s.products)),
		orders:    make(map[uuid.UUID]*model.Order, len(s.orders)),
		sales:     make(map[string]*model.SalesData, len(s.sales)),
		movements: slices.Clone(s.movements),
		audits:    slices.Clone(s.audits),
	}
	for k, v := range s.products {
		snap.products[k] = cloneProduct(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.sales {
		c := *v
		snap.sales[k] = &c
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.sales = snap.sales
	s.movements = snap.movements
	s.audits = snap.audits
}

func (s *memStore) addProduct(p *model.Product) {
	s.products[p.ID] = cloneProduct(p)
}

func (s *memStore) product(id uuid.UUID) *model.Product {
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	return cloneProduct(p)
}

func (s *memStore) salesRow(productID uuid.UUID, month string) *model.SalesData {
	return s.sales[productID.String()+"|"+month]
}

// --- transaction manager ---

type fakeTx struct{ store *memStore }

func (f fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

// --- products ---

type fakeProducts struct{ store *memStore }

func (f fakeProducts) Create(_ context.Context, p *model.Product) error {
	if err := f.store.fail("products.Create"); err != nil {
		return err
	}
	f.store.addProduct(p)
	return nil
}

func (f fakeProducts) Update(_ context.Context, p *model.Product) error {
	stored, ok := f.store.products[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	units := stored.Units
	quantity := stored.Quantity
	c := cloneProduct(p)
	c.Units = units
	c.Quantity = quantity
	f.store.products[p.ID] = c
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.store.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.store.products, id)
	return nil
}

func (f fakeProducts) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p := f.store.product(id)
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f fakeProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if err := f.store.fail("products.FindByIDForUpdate"); err != nil {
		return nil, err
	}
	return f.FindByID(ctx, id)
}

func (f fakeProducts) all() []model.Product {
	out := make([]model.Product, 0, len(f.store.products))
	for _, p := range f.store.products {
		out = append(out, *cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b model.Product) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (f fakeProducts) List(_ context.Context, _ query.ProductFilter, _ time.Time) ([]model.Product, error) {
	return f.all(), nil
}

func (f fakeProducts) ListLowStock(_ context.Context, threshold int) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.all() {
		if p.Quantity <= threshold {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Product) int { return a.Quantity - b.Quantity })
	return out, nil
}

func (f fakeProducts) Count(_ context.Context) (int64, error) {
	return int64(len(f.store.products)), nil
}

func (f fakeProducts) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	rows, _ := f.ListLowStock(ctx, threshold)
	return int64(len(rows)), nil
}

func (f fakeProducts) UpdateQuantity(_ context.Context, id uuid.UUID, quantity int, at time.Time) error {
	if err := f.store.fail("products.UpdateQuantity"); err != nil {
		return err
	}
	p, ok := f.store.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Quantity = quantity
	p.UpdatedAt = at
	return nil
}

func (f fakeProducts) AddUnits(_ context.Context, units []model.ProductUnit) error {
	for _, u := range units {
		p, ok := f.store.products[u.ProductID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		p.Units = append(p.Units, u)
	}
	return nil
}

func (f fakeProducts) UpdateUnits(_ context.Context, units []model.ProductUnit) error {
	if err := f.store.fail("products.UpdateUnits"); err != nil {
		return err
	}
	for _, u := range units {
		p, ok := f.store.products[u.ProductID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		stored := p.Unit(u.ID)
		if stored == nil {
			return gorm.ErrRecordNotFound
		}
		stored.Status = u.Status
		stored.SoldDate = u.SoldDate
		stored.OrderID = u.OrderID
	}
	return nil
}

func (f fakeProducts) DeleteUnit(_ context.Context, productID, unitID uuid.UUID) error {
	p, ok := f.store.products[productID]
	if !ok || p.Unit(unitID) == nil {
		return gorm.ErrRecordNotFound
	}
	p.Units = slices.DeleteFunc(p.Units, func(u model.ProductUnit) bool { return u.ID == unitID })
	return nil
}

func (f fakeProducts) FindExistingSerials(_ context.Context, serials []string) ([]string, error) {
	var out []string
	for _, p := range f.store.products {
		for _, u := range p.Units {
			if slices.Contains(serials, u.SerialNumber) {
				out = append(out, u.SerialNumber)
			}
		}
	}
	return out, nil
}

func (f fakeProducts) FindExpiringUnits(_ context.Context, w query.Window) ([]model.ExpiringUnit, error) {
	var out []model.ExpiringUnit
	for _, p := range f.store.products {
		for _, u := range p.Units {
			if u.Status != model.UnitStatusAvailable || !w.Contains(u.ExpiryDate) {
				continue
			}
			out = append(out, model.ExpiringUnit{
				ProductID:    p.ID,
				Name:         p.Name,
				Brand:        p.Brand,
				Type:         p.Type,
				Flavor:       p.Flavor,
				Weight:       p.Weight,
				Price:        p.Price,
				UnitID:       u.ID,
				SerialNumber: u.SerialNumber,
				ExpiryDate:   u.ExpiryDate,
				Quantity:     p.Quantity,
			})
		}
	}
	slices.SortFunc(out, func(a, b model.ExpiringUnit) int { return a.ExpiryDate.Compare(b.ExpiryDate) })
	return out, nil
}

func (f fakeProducts) CountExpiringUnits(ctx context.Context, w query.Window) (int64, error) {
	rows, _ := f.FindExpiringUnits(ctx, w)
	return int64(len(rows)), nil
}

// --- orders ---

type fakeOrders struct{ store *memStore }

func (f fakeOrders) Create(_ context.Context, o *model.Order) error {
	if err := f.store.fail("orders.Create"); err != nil {
		return err
	}
	f.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (f fakeOrders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := f.store.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (f fakeOrders) sorted() []model.Order {
	out := make([]model.Order, 0, len(f.store.orders))
	for _, o := range f.store.orders {
		out = append(out, *cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b model.Order) int { return b.OrderDate.Compare(a.OrderDate) })
	return out
}

func (f fakeOrders) List(_ context.Context, _ query.OrderFilter) ([]model.Order, error) {
	return f.sorted(), nil
}

func (f fakeOrders) Update(_ context.Context, o *model.Order) error {
	stored, ok := f.store.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = o.Status
	stored.Notes = o.Notes
	stored.UpdatedAt = o.UpdatedAt
	return nil
}

func (f fakeOrders) Recent(_ context.Context, limit int) ([]model.Order, error) {
	out := f.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeOrders) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, o := range f.store.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

// --- sales ---

type fakeSales struct{ store *memStore }

func (f fakeSales) Upsert(_ context.Context, e *model.SalesData) error {
	if err := f.store.fail("sales.Upsert"); err != nil {
		return err
	}
	key := e.ProductID.String() + "|" + e.Month
	if row, ok := f.store.sales[key]; ok {
		row.QuantitySold += e.QuantitySold
		row.Revenue = row.Revenue.Add(e.Revenue)
		row.UpdatedAt = e.UpdatedAt
		return nil
	}
	c := *e
	f.store.sales[key] = &c
	return nil
}

func (f fakeSales) rows() []model.SalesData {
	out := make([]model.SalesData, 0, len(f.store.sales))
	for _, row := range f.store.sales {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b model.SalesData) int { return b.QuantitySold - a.QuantitySold })
	return out
}

func (f fakeSales) List(_ context.Context, filter query.SalesFilter) ([]model.SalesData, error) {
	var out []model.SalesData
	for _, row := range f.rows() {
		if filter.Month != "" && row.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && row.Year != filter.Year {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f fakeSales) MonthTotals(_ context.Context, month string) (model.MonthTotals, error) {
	var totals model.MonthTotals
	for _, row := range f.store.sales {
		if row.Month == month {
			totals.Revenue = totals.Revenue.Add(row.Revenue)
			totals.Quantity += row.QuantitySold
		}
	}
	return totals, nil
}

func (f fakeSales) TopByMonth(_ context.Context, month string, limit int) ([]model.SalesData, error) {
	var out []model.SalesData
	for _, row := range f.rows() {
		if row.Month == month {
			out = append(out, row)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- movements, audit, metadata ---

type fakeMovements struct{ store *memStore }

func (f fakeMovements) Create(_ context.Context, movements ...model.StockMovement) error {
	f.store.movements = append(f.store.movements, movements...)
	return nil
}

func (f fakeMovements) ListByProduct(_ context.Context, productID uuid.UUID, offset, limit int) ([]model.StockMovement, int64, error) {
	var rows []model.StockMovement
	for _, m := range f.store.movements {
		if m.ProductID == productID {
			rows = append(rows, m)
		}
	}
	total := int64(len(rows))
	if offset >= len(rows) {
		return nil, total, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, total, nil
}

type fakeAudits struct{ store *memStore }

func (f fakeAudits) Log(_ context.Context, entry *model.AuditLog) error {
	if err := f.store.fail("audit.Log"); err != nil {
		return err
	}
	f.store.audits = append(f.store.audits, *entry)
	return nil
}

func (f fakeAudits) List(_ context.Context, offset, limit int) ([]model.AuditLog, int64, error) {
	rows := f.store.audits
	total := int64(len(rows))
	if offset >= len(rows) {
		return nil, total, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, total, nil
}

type fakeMetadata struct{ store *memStore }

func (f fakeMetadata) ListCategories(_ context.Context) ([]model.Category, error) {
	return f.store.categories, nil
}

func (f fakeMetadata) CreateCategory(_ context.Context, c *model.Category) error {
	f.store.categories = append(f.store.categories, *c)
	return nil
}

func (f fakeMetadata) CategoryTypeExists(_ context.Context, categoryType string) (bool, error) {
	for _, c := range f.store.categories {
		if c.Type == categoryType {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeMetadata) ListBrands(_ context.Context) ([]model.Brand, error) {
	return nil, nil
}

func (f fakeMetadata) CreateBrand(_ context.Context, _ *model.Brand) error {
	return nil
}

// --- events ---

type publishedEvent struct {
	name string
	data map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingPublisher) Publish(event string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{name: event, data: data})
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.name)
	}
	return out
}
