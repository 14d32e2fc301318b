package service

import (
	"context"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/query"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"
)

const (
	dashboardTopProducts  = 5
	dashboardRecentOrders = 5
)

type AnalyticsService interface {
	GetSales(ctx context.Context, filter query.SalesFilter) ([]model.SalesData, error)
	GetDashboard(ctx context.Context) (*model.DashboardStats, error)
}

type analyticsService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	salesRepo   repository.SalesRepository
	settings    Settings
	now         func() time.Time
}

func NewAnalyticsService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	salesRepo repository.SalesRepository,
	settings Settings,
) AnalyticsService {
	return &analyticsService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		salesRepo:   salesRepo,
		settings:    settings.withDefaults(),
		now:         time.Now,
	}
}

func (s *analyticsService) GetSales(ctx context.Context, filter query.SalesFilter) ([]model.SalesData, error) {
	rows, err := s.salesRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("Fetching sales data failed, please try again.", err)
	}
	if rows == nil {
		rows = []model.SalesData{}
	}
	return rows, nil
}

// GetDashboard recomputes every counter on each call.
func (s *analyticsService) GetDashboard(ctx context.Context) (*model.DashboardStats, error) {
	const failed = "Fetching dashboard data failed, please try again."

	now := s.now()
	month := model.MonthKey(now)
	stats := &model.DashboardStats{}

	var err error
	if stats.TotalProducts, err = s.productRepo.Count(ctx); err != nil {
		return nil, apperror.Internal(failed, err)
	}
	if stats.LowStockCount, err = s.productRepo.CountLowStock(ctx, s.settings.LowStockThreshold); err != nil {
		return nil, apperror.Internal(failed, err)
	}
	if stats.NearExpiryCount, err = s.productRepo.CountExpiringUnits(ctx, query.NewWindow(now, s.settings.NearExpiryMonths)); err != nil {
		return nil, apperror.Internal(failed, err)
	}

	totals, err := s.salesRepo.MonthTotals(ctx, month)
	if err != nil {
		return nil, apperror.Internal(failed, err)
	}
	stats.MonthRevenue = totals.Revenue
	stats.MonthQuantity = totals.Quantity

	if stats.TopProducts, err = s.salesRepo.TopByMonth(ctx, month, dashboardTopProducts); err != nil {
		return nil, apperror.Internal(failed, err)
	}
	if stats.RecentOrders, err = s.orderRepo.Recent(ctx, dashboardRecentOrders); err != nil {
		return nil, apperror.Internal(failed, err)
	}
	if stats.PendingOrdersCount, err = s.orderRepo.CountByStatus(ctx, model.OrderStatusPending); err != nil {
		return nil, apperror.Internal(failed, err)
	}

	if stats.TopProducts == nil {
		stats.TopProducts = []model.SalesData{}
	}
	if stats.RecentOrders == nil {
		stats.RecentOrders = []model.Order{}
	}
	return stats, nil
}
