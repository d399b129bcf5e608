package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/driveline-motors/apiserver/types"
	"github.com/shopspring/decimal"
)

// Event channels for order lifecycle notifications.
const (
	channelOrderCreated       = "orders.created"
	channelOrderStatusChanged = "orders.status-changed"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Get(ctx context.Context, id int) (types.Order, error)
	Create(ctx context.Context, order types.Order) (types.Order, error)
	ListByUser(ctx context.Context, userID int) ([]types.Order, error)
	List(ctx context.Context, filter store.OrderFilter) ([]types.Order, error)
	UpdateStatus(ctx context.Context, id int, status string) (types.Order, error)
}

// EventPublisher delivers order lifecycle events to a message broker.
// Publishing is best-effort: failures are logged and never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// TransitionValidator can veto an order status transition. The default
// (nil) allows any status to move to any other, matching the storefront's
// observed behavior; installing a validator tightens the graph without
// touching the service.
type TransitionValidator func(from, to string) error

// CreateOrderInput is the checkout payload. Items carry their own
// denormalized snapshot of the listing at order time, so later catalog
// edits never alter a recorded order. TotalAmount is trusted from the
// client and not recomputed.
type CreateOrderInput struct {
	Items           []types.OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	ReceiptURL      string                `json:"receipt_url"`
}

// OrderService encapsulates the checkout and order administration use-cases.
type OrderService struct {
	repo   OrderRepository
	events EventPublisher

	// ValidateTransition, when set, is consulted before every status change.
	ValidateTransition TransitionValidator
}

func NewOrderService(repo OrderRepository, events EventPublisher) *OrderService {
	return &OrderService{repo: repo, events: events}
}

// Create converts a client-side cart snapshot into a durable order. The
// owner id, when non-nil, comes from a verified bearer token; nil produces
// a guest order. The status is forced to pending regardless of any
// caller-supplied value.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput, userID *int) (types.Order, error) {
	if len(input.Items) == 0 {
		return types.Order{}, validationError("Order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return types.Order{}, validationError("Item quantity must be at least 1")
		}
		if strings.TrimSpace(item.Name) == "" {
			return types.Order{}, validationError("Item name is required")
		}
	}
	if !input.TotalAmount.IsPositive() {
		return types.Order{}, validationError("Total amount is required")
	}
	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return types.Order{}, err
	}

	order, err := s.repo.Create(ctx, types.Order{
		UserID:          userID,
		OrderStatus:     types.OrderStatusPending,
		Items:           input.Items,
		TotalAmount:     input.TotalAmount,
		ShippingAddress: input.ShippingAddress,
		ReceiptURL:      strings.TrimSpace(input.ReceiptURL),
	})
	if err != nil {
		return types.Order{}, err
	}

	s.publish(ctx, channelOrderCreated, order, nil)
	return order, nil
}

// Get returns an order to its owner or to an admin. Guest orders have no
// owner and are therefore admin-only to read back, even though they were
// insertable without authentication.
func (s *OrderService) Get(ctx context.Context, id int, requester types.User) (types.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Order{}, notFoundError("Order not found")
		}
		return types.Order{}, err
	}

	if requester.Role != types.RoleAdmin {
		if order.UserID == nil || *order.UserID != requester.ID {
			return types.Order{}, forbiddenError("Not authorized to view this order")
		}
	}
	return order, nil
}

// ListForUser returns the requester's own orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID int) ([]types.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// List returns orders matching the filter. Callers must gate this behind
// the admin role.
func (s *OrderService) List(ctx context.Context, filter store.OrderFilter) ([]types.Order, error) {
	if filter.Status != "" && !types.ValidOrderStatus(filter.Status) {
		return nil, validationError("Invalid order status")
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus overwrites an order's status. The new status must be one of
// the enumerated values; beyond that, any transition is allowed unless a
// TransitionValidator is installed.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, status string) (types.Order, error) {
	if !types.ValidOrderStatus(status) {
		return types.Order{}, validationError("Invalid order status")
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Order{}, notFoundError("Order not found")
		}
		return types.Order{}, err
	}

	if s.ValidateTransition != nil {
		if err := s.ValidateTransition(current.OrderStatus, status); err != nil {
			return types.Order{}, validationError(err.Error())
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Order{}, notFoundError("Order not found")
		}
		return types.Order{}, err
	}

	s.publish(ctx, channelOrderStatusChanged, updated, map[string]string{
		"previous_status": current.OrderStatus,
	})
	return updated, nil
}

func (s *OrderService) publish(ctx context.Context, channel string, order types.Order, attrs map[string]string) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(order)
	if err != nil {
		log.Printf("failed to encode order event: %v", err)
		return
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["order_id"] = strconv.Itoa(order.ID)
	if _, err := s.events.Publish(ctx, channel, data, attrs); err != nil {
		log.Printf("failed to publish %s event for order %d: %v", channel, order.ID, err)
	}
}

func validateShippingAddress(addr types.ShippingAddress) error {
	fields := map[string]string{
		"first name": addr.FirstName,
		"last name":  addr.LastName,
		"email":      addr.Email,
		"street":     addr.Street,
		"city":       addr.City,
		"state":      addr.State,
		"zip code":   addr.ZipCode,
		"country":    addr.Country,
		"phone":      addr.Phone,
	}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return validationError("Shipping address " + name + " is required")
		}
	}
	return nil
}
