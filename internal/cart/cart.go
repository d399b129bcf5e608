// Package cart models the client-side shopping cart: an ephemeral,
// in-memory map of listing id to quantity with totals derivation. It is
// never persisted server-side; checkout turns its contents into the
// denormalized item snapshots an order is created from.
package cart

import (
	"errors"

	"github.com/driveline-motors/apiserver/types"
	"github.com/shopspring/decimal"
)

// ErrEmpty is returned when checking out a cart with no items.
var ErrEmpty = errors.New("cart is empty")

// Lookup resolves a listing id against the catalog. The boolean mirrors
// map access: a false result means the weak reference no longer resolves
// and the line is skipped at checkout.
type Lookup func(carID int) (types.Car, bool)

// Line is one cart entry.
type Line struct {
	CarID    int `json:"car_id"`
	Quantity int `json:"quantity"`
}

// Cart holds quantities keyed by listing id, preserving insertion order.
type Cart struct {
	quantities map[int]int
	order      []int
}

func New() *Cart {
	return &Cart{quantities: make(map[int]int)}
}

// Add increases the quantity for a listing, inserting it if absent.
// Non-positive quantities are ignored.
func (c *Cart) Add(carID, quantity int) {
	if quantity < 1 {
		return
	}
	if _, ok := c.quantities[carID]; !ok {
		c.order = append(c.order, carID)
	}
	c.quantities[carID] += quantity
}

// SetQuantity overwrites the quantity for a listing. A quantity below one
// removes the line.
func (c *Cart) SetQuantity(carID, quantity int) {
	if quantity < 1 {
		c.Remove(carID)
		return
	}
	if _, ok := c.quantities[carID]; !ok {
		c.order = append(c.order, carID)
	}
	c.quantities[carID] = quantity
}

// Remove drops a listing from the cart.
func (c *Cart) Remove(carID int) {
	if _, ok := c.quantities[carID]; !ok {
		return
	}
	delete(c.quantities, carID)
	for i, id := range c.order {
		if id == carID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.quantities = make(map[int]int)
	c.order = nil
}

// Lines returns the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		lines = append(lines, Line{CarID: id, Quantity: c.quantities[id]})
	}
	return lines
}

// Count returns the total number of units across all lines.
func (c *Cart) Count() int {
	total := 0
	for _, qty := range c.quantities {
		total += qty
	}
	return total
}

// Total derives the cart total from current catalog prices. Lines whose
// listing no longer resolves contribute nothing.
func (c *Cart) Total(lookup Lookup) decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		car, ok := lookup(id)
		if !ok {
			continue
		}
		total = total.Add(car.Price.Mul(decimal.NewFromInt(int64(c.quantities[id]))))
	}
	return total
}

// Checkout snapshots the cart into order items, capturing each listing's
// name, price, and primary image at this moment. Lines whose listing no
// longer resolves are dropped; a cart with nothing resolvable returns
// ErrEmpty.
func (c *Cart) Checkout(lookup Lookup) ([]types.OrderItem, decimal.Decimal, error) {
	if len(c.order) == 0 {
		return nil, decimal.Zero, ErrEmpty
	}

	var items []types.OrderItem
	total := decimal.Zero
	for _, id := range c.order {
		car, ok := lookup(id)
		if !ok {
			continue
		}
		quantity := c.quantities[id]
		image := ""
		if len(car.Images) > 0 {
			image = car.Images[0]
		}
		items = append(items, types.OrderItem{
			CarID:    car.ID,
			Name:     car.Brand + " " + car.Model,
			Price:    car.Price,
			Quantity: quantity,
			Image:    image,
		})
		total = total.Add(car.Price.Mul(decimal.NewFromInt(int64(quantity))))
	}

	if len(items) == 0 {
		return nil, decimal.Zero, ErrEmpty
	}
	return items, total, nil
}
