package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driveline-motors/apiserver/types"
)

// OrderFilter narrows an order listing. Zero-valued fields are skipped;
// set fields are combined conjunctively. Date bounds are inclusive.
type OrderFilter struct {
	Status    string
	UserID    int
	StartDate *time.Time
	EndDate   *time.Time
}

// OrderRepository handles persistence for orders.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, order_status, items, total_amount, shipping_address,
		receipt_url, created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (types.Order, error) {
	var order types.Order
	var userID sql.NullInt64
	var itemsJSON, addressJSON []byte
	var receiptURL sql.NullString
	err := scan(
		&order.ID,
		&userID,
		&order.OrderStatus,
		&itemsJSON,
		&order.TotalAmount,
		&addressJSON,
		&receiptURL,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return types.Order{}, err
	}
	if userID.Valid {
		id := int(userID.Int64)
		order.UserID = &id
	}
	order.ReceiptURL = receiptURL.String
	_ = json.Unmarshal(itemsJSON, &order.Items)
	_ = json.Unmarshal(addressJSON, &order.ShippingAddress)
	return order, nil
}

func (r *OrderRepository) collect(rows *sql.Rows) ([]types.Order, error) {
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int) (types.Order, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Order{}, ErrNotFound
		}
		return types.Order{}, err
	}
	return order, nil
}

// ListByUser returns the orders owned by userID, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int) ([]types.Order, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]types.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders`

	var conditions []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "order_status = "+arg(filter.Status))
	}
	if filter.UserID != 0 {
		conditions = append(conditions, "user_id = "+arg(filter.UserID))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.EndDate))
	}

	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *OrderRepository) Create(ctx context.Context, order types.Order) (types.Order, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return types.Order{}, err
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return types.Order{}, err
	}

	var userID sql.NullInt64
	if order.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*order.UserID), Valid: true}
	}
	var receiptURL sql.NullString
	if order.ReceiptURL != "" {
		receiptURL = sql.NullString{String: order.ReceiptURL, Valid: true}
	}

	const query = `
		INSERT INTO orders (user_id, order_status, items, total_amount, shipping_address,
			receipt_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		userID,
		order.OrderStatus,
		itemsJSON,
		order.TotalAmount,
		addressJSON,
		receiptURL,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID); err != nil {
		return types.Order{}, err
	}
	return order, nil
}

// UpdateStatus overwrites the status of an existing order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status string) (types.Order, error) {
	const query = `
		UPDATE orders
		SET order_status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return types.Order{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Order{}, err
	}
	if affected == 0 {
		return types.Order{}, ErrNotFound
	}
	return r.Get(ctx, id)
}
