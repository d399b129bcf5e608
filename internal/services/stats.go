package services

import (
	"context"
	"time"

	"github.com/driveline-motors/apiserver/types"
)

// StatsRepository defines the aggregation queries behind the admin dashboard.
type StatsRepository interface {
	Overview(ctx context.Context) (types.DashboardStats, error)
	Sales(ctx context.Context, period string, start, end *time.Time) ([]types.SalesBucket, error)
	Inventory(ctx context.Context) (types.InventoryStats, error)
	RecentOrders(ctx context.Context, limit int) ([]types.Order, error)
}

// StatsService encapsulates the read-only reporting use-cases.
type StatsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) Overview(ctx context.Context) (types.DashboardStats, error) {
	return s.repo.Overview(ctx)
}

func (s *StatsService) Sales(ctx context.Context, period string, start, end *time.Time) ([]types.SalesBucket, error) {
	switch period {
	case "", types.PeriodDaily, types.PeriodWeekly, types.PeriodMonthly:
	default:
		return nil, validationError("Invalid reporting period")
	}
	return s.repo.Sales(ctx, period, start, end)
}

func (s *StatsService) Inventory(ctx context.Context) (types.InventoryStats, error) {
	return s.repo.Inventory(ctx)
}

func (s *StatsService) RecentActivity(ctx context.Context, limit int) ([]types.Order, error) {
	if limit < 1 {
		limit = 10
	}
	return s.repo.RecentOrders(ctx, limit)
}
