package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/driveline-motors/apiserver/types"
	"github.com/shopspring/decimal"
)

// StatsRepository runs read-only aggregation queries over the catalog and
// order tables. Every call re-scans the relevant rows; nothing is cached.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview collects the dashboard headline numbers.
func (r *StatsRepository) Overview(ctx context.Context) (types.DashboardStats, error) {
	stats := types.DashboardStats{TotalRevenue: decimal.Zero}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM cars`, &stats.TotalCars},
		{`SELECT COUNT(1) FROM orders`, &stats.TotalOrders},
		{`SELECT COUNT(1) FROM users`, &stats.TotalUsers},
	}
	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return types.DashboardStats{}, err
		}
	}

	const revenueQuery = `SELECT COALESCE(SUM(total_amount), 0) FROM orders`
	if err := r.db.QueryRowContext(ctx, revenueQuery).Scan(&stats.TotalRevenue); err != nil {
		return types.DashboardStats{}, err
	}

	byStatus, err := r.ordersByStatus(ctx)
	if err != nil {
		return types.DashboardStats{}, err
	}
	stats.OrdersByStatus = byStatus

	recent, err := r.RecentOrders(ctx, 5)
	if err != nil {
		return types.DashboardStats{}, err
	}
	stats.RecentOrders = recent

	return stats, nil
}

func (r *StatsRepository) ordersByStatus(ctx context.Context) ([]types.StatusCount, error) {
	const query = `
		SELECT order_status, COUNT(1)
		FROM orders
		GROUP BY order_status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.StatusCount
	for rows.Next() {
		var sc types.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// RecentOrders returns the latest limit orders, newest first.
func (r *StatsRepository) RecentOrders(ctx context.Context, limit int) ([]types.Order, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// Sales groups order totals into day, week, or month buckets. Date bounds,
// when set, are inclusive.
func (r *StatsRepository) Sales(ctx context.Context, period string, start, end *time.Time) ([]types.SalesBucket, error) {
	var trunc string
	switch period {
	case types.PeriodMonthly:
		trunc = "month"
	case types.PeriodWeekly:
		trunc = "week"
	default:
		trunc = "day"
	}

	query := fmt.Sprintf(`
		SELECT date_trunc('%s', created_at) AS period,
			COALESCE(SUM(total_amount), 0),
			COUNT(1)
		FROM orders`, trunc)

	var conditions []string
	var args []any
	if start != nil {
		args = append(args, *start)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if end != nil {
		args = append(args, *end)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tGROUP BY period\n\t\tORDER BY period DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []types.SalesBucket
	for rows.Next() {
		var b types.SalesBucket
		if err := rows.Scan(&b.Period, &b.TotalSales, &b.OrderCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Inventory breaks the catalog down by type, condition, and brand, plus a
// price summary per body type. Brands are capped at the ten most common.
func (r *StatsRepository) Inventory(ctx context.Context) (types.InventoryStats, error) {
	var stats types.InventoryStats
	var err error

	if stats.CarsByType, err = r.groupCount(ctx, `
		SELECT type, COUNT(1) FROM cars GROUP BY type`); err != nil {
		return types.InventoryStats{}, err
	}
	if stats.CarsByCondition, err = r.groupCount(ctx, `
		SELECT condition, COUNT(1) FROM cars GROUP BY condition`); err != nil {
		return types.InventoryStats{}, err
	}
	if stats.CarsByBrand, err = r.groupCount(ctx, `
		SELECT brand, COUNT(1) FROM cars GROUP BY brand ORDER BY COUNT(1) DESC LIMIT 10`); err != nil {
		return types.InventoryStats{}, err
	}

	const priceQuery = `
		SELECT type, MIN(price), AVG(price), MAX(price)
		FROM cars
		GROUP BY type`
	rows, err := r.db.QueryContext(ctx, priceQuery)
	if err != nil {
		return types.InventoryStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ps types.PriceStats
		if err := rows.Scan(&ps.Type, &ps.MinPrice, &ps.AvgPrice, &ps.MaxPrice); err != nil {
			return types.InventoryStats{}, err
		}
		stats.PriceByType = append(stats.PriceByType, ps)
	}
	return stats, rows.Err()
}

func (r *StatsRepository) groupCount(ctx context.Context, query string) ([]types.GroupCount, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.GroupCount
	for rows.Next() {
		var gc types.GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}
