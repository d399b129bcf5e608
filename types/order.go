package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values. New orders always start out as OrderStatusPending;
// the remaining statuses are reachable from any other status via the
// admin status-update operation.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is one of the enumerated order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a denormalized snapshot of a catalog listing captured at
// checkout time. Later edits to the catalog never alter a recorded order,
// and CarID is a weak reference: the listing it points at may no longer
// exist.
type OrderItem struct {
	// CarID references the catalog listing the item was created from.
	CarID int `json:"car_id" db:"car_id"`

	// Name is the display name of the listing at order time.
	Name string `json:"name" db:"name"`

	// Price is the unit price at order time.
	Price decimal.Decimal `json:"price" db:"price"`

	// Quantity is the number of units ordered. At least one.
	Quantity int `json:"quantity" db:"quantity"`

	// Image is the primary image URL of the listing at order time.
	Image string `json:"image" db:"image"`
}

// ShippingAddress is the delivery destination for an order.
// All nine fields are required at order creation.
type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// Order represents a placed order.
//
// UserID is optional: checkout never requires authentication, so an order
// created without a verifiable bearer token is a guest order with no owner.
// Guest orders are only readable by admins.
type Order struct {
	// ID is the unique identifier of the order.
	ID int `json:"id" db:"id"`

	// UserID is the optional owner of the order, attached at creation time
	// from a verified bearer token. Nil for guest orders.
	UserID *int `json:"user_id,omitempty" db:"user_id"`

	// OrderStatus is one of the enumerated order statuses.
	OrderStatus string `json:"order_status" db:"order_status"`

	// Items is the ordered, non-empty list of item snapshots.
	Items []OrderItem `json:"items" db:"items"`

	// TotalAmount is the order total as submitted by the client.
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`

	// ShippingAddress is the delivery destination.
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`

	// ReceiptURL optionally points at an uploaded payment receipt.
	ReceiptURL string `json:"receipt_url,omitempty" db:"receipt_url"`

	// CreatedAt is the timestamp at which the order was placed.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the order.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
