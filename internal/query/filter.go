package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"inventory-api/internal/model"
	"inventory-api/pkg/apperror"

	"gorm.io/gorm"
)

// DefaultLowStockThreshold applies when lowStock is given without a usable number.
const DefaultLowStockThreshold = 10

var productSortColumns = map[string]string{
	"name":      "products.name",
	"brand":     "products.brand",
	"type":      "products.type",
	"flavor":    "products.flavor",
	"weight":    "products.weight",
	"price":     "products.price",
	"costPrice": "products.cost_price",
	"quantity":  "products.quantity",
	"dateAdded": "products.date_added",
	"updatedAt": "products.updated_at",
}

var orderSortColumns = map[string]string{
	"orderDate":    "orders.order_date",
	"customerName": "orders.customer_name",
	"totalAmount":  "orders.total_amount",
	"finalAmount":  "orders.final_amount",
	"status":       "orders.status",
	"soldBy":       "orders.sold_by",
	"createdAt":    "orders.created_at",
}

// Sort is a whitelisted ORDER BY column.
type Sort struct {
	Column string
	Desc   bool
}

func (s Sort) clause() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

func parseSort(v url.Values, columns map[string]string, def Sort) (Sort, error) {
	field := v.Get("sortBy")
	if field == "" {
		return def, nil
	}
	col, ok := columns[field]
	if !ok {
		return Sort{}, apperror.Validation("Invalid sort field: " + field)
	}
	return Sort{Column: col, Desc: strings.EqualFold(v.Get("sortOrder"), "desc")}, nil
}

// ProductFilter holds the optional product list filters.
type ProductFilter struct {
	Category         string
	Brand            string
	Search           string
	LowStock         *int
	NearExpiryMonths int
	Sort             Sort
}

func ParseProductFilter(v url.Values) (ProductFilter, error) {
	f := ProductFilter{
		Category: strings.TrimSpace(v.Get("category")),
		Brand:    strings.TrimSpace(v.Get("brand")),
		Search:   strings.TrimSpace(v.Get("search")),
	}

	if v.Has("lowStock") {
		threshold, err := strconv.Atoi(v.Get("lowStock"))
		if err != nil || threshold <= 0 {
			threshold = DefaultLowStockThreshold
		}
		f.LowStock = &threshold
	}

	if raw := v.Get("nearExpiry"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months < 1 || months > maxHorizonMonths {
			return ProductFilter{}, apperror.Validation("Invalid nearExpiry value: " + raw)
		}
		f.NearExpiryMonths = months
	}

	sort, err := parseSort(v, productSortColumns, Sort{Column: "products.date_added", Desc: true})
	if err != nil {
		return ProductFilter{}, err
	}
	f.Sort = sort

	return f, nil
}

// Scope applies the filter and ordering. now anchors the near-expiry window.
func (f ProductFilter) Scope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("products.type = ?", f.Category)
		}
		if f.Brand != "" {
			db = db.Where("products.brand = ?", f.Brand)
		}
		if f.Search != "" {
			pattern := "%" + escapeLike(f.Search) + "%"
			db = db.Where("(products.name ILIKE ? OR products.brand ILIKE ? OR products.flavor ILIKE ?)", pattern, pattern, pattern)
		}
		if f.LowStock != nil {
			db = db.Where("products.quantity <= ?", *f.LowStock)
		}
		if f.NearExpiryMonths > 0 {
			w := NewWindow(now, f.NearExpiryMonths)
			db = db.Where(
				"EXISTS (SELECT 1 FROM product_units pu WHERE pu.product_id = products.id AND pu.status = ? AND pu.expiry_date > ? AND pu.expiry_date <= ?)",
				model.UnitStatusAvailable, w.From, w.To,
			)
		}
		return db.Order(f.Sort.clause())
	}
}

// OrderFilter holds the optional order list filters.
type OrderFilter struct {
	Status   string
	SoldBy   string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     Sort
}

// ParseOrderFilter reads status, soldBy, dateFrom and dateTo. A plain date for
// dateTo covers the whole day.
func ParseOrderFilter(v url.Values) (OrderFilter, error) {
	f := OrderFilter{
		Status: strings.TrimSpace(v.Get("status")),
		SoldBy: strings.TrimSpace(v.Get("soldBy")),
	}
	if f.Status != "" && !model.IsValidOrderStatus(f.Status) {
		return OrderFilter{}, apperror.Validation("Invalid order status: " + f.Status)
	}

	if raw := v.Get("dateFrom"); raw != "" {
		t, _, err := ParseTime(raw)
		if err != nil {
			return OrderFilter{}, apperror.Validation("Invalid dateFrom value: " + raw)
		}
		f.DateFrom = &t
	}
	if raw := v.Get("dateTo"); raw != "" {
		t, dateOnly, err := ParseTime(raw)
		if err != nil {
			return OrderFilter{}, apperror.Validation("Invalid dateTo value: " + raw)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.DateTo = &t
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return OrderFilter{}, apperror.Validation("dateTo must not be before dateFrom.")
	}

	sort, err := parseSort(v, orderSortColumns, Sort{Column: "orders.order_date", Desc: true})
	if err != nil {
		return OrderFilter{}, err
	}
	f.Sort = sort

	return f, nil
}

func (f OrderFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("orders.status = ?", f.Status)
		}
		if f.SoldBy != "" {
			db = db.Where("orders.sold_by = ?", f.SoldBy)
		}
		if f.DateFrom != nil {
			db = db.Where("orders.order_date >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			db = db.Where("orders.order_date <= ?", *f.DateTo)
		}
		return db.Order(f.Sort.clause())
	}
}

// SalesFilter selects rollups by month key or by year.
type SalesFilter struct {
	Month string
	Year  int
}

// ParseSalesFilter reads period=month&value=YYYY-MM or period=year&value=YYYY.
// A period without a value means no filter.
func ParseSalesFilter(v url.Values) (SalesFilter, error) {
	period, value := v.Get("period"), strings.TrimSpace(v.Get("value"))
	if period == "" || value == "" {
		return SalesFilter{}, nil
	}

	switch period {
	case "month":
		if _, err := time.Parse(model.MonthLayout, value); err != nil {
			return SalesFilter{}, apperror.Validation("Invalid month value, expected YYYY-MM: " + value)
		}
		return SalesFilter{Month: value}, nil
	case "year":
		year, err := strconv.Atoi(value)
		if err != nil || year < 1 {
			return SalesFilter{}, apperror.Validation("Invalid year value: " + value)
		}
		return SalesFilter{Year: year}, nil
	default:
		return SalesFilter{}, apperror.Validation("Invalid period, expected month or year: " + period)
	}
}

func (f SalesFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Month != "" {
			db = db.Where("sales_data.month = ?", f.Month)
		}
		if f.Year != 0 {
			db = db.Where("sales_data.year = ?", f.Year)
		}
		return db.Order("sales_data.quantity_sold DESC")
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
