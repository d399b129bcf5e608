package cart

import (
	"errors"
	"testing"

	"github.com/driveline-motors/apiserver/types"
	"github.com/shopspring/decimal"
)

func testCatalog() Lookup {
	catalog := map[int]types.Car{
		1: {ID: 1, Brand: "Tesla", Model: "Model 3", Price: decimal.NewFromInt(42000), Images: []string{"https://cdn.test/m3.jpg"}},
		2: {ID: 2, Brand: "Honda", Model: "Civic", Price: decimal.NewFromInt(28000)},
	}
	return func(carID int) (types.Car, bool) {
		car, ok := catalog[carID]
		return car, ok
	}
}

func TestCartAddAndSetQuantity(t *testing.T) {
	c := New()
	c.Add(1, 1)
	c.Add(1, 2)
	c.Add(2, 1)
	c.Add(2, 0) // ignored

	if c.Count() != 4 {
		t.Fatalf("want 4 units, got %d", c.Count())
	}

	lines := c.Lines()
	if len(lines) != 2 || lines[0].CarID != 1 || lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines: %+v", lines)
	}

	c.SetQuantity(1, 1)
	c.SetQuantity(2, 0) // removes the line
	lines = c.Lines()
	if len(lines) != 1 || lines[0].CarID != 1 || lines[0].Quantity != 1 {
		t.Fatalf("unexpected lines after set: %+v", lines)
	}
}

func TestCartTotalSkipsUnresolvable(t *testing.T) {
	c := New()
	c.Add(1, 2)
	c.Add(99, 1) // listing was deleted from the catalog

	total := c.Total(testCatalog())
	if !total.Equal(decimal.NewFromInt(84000)) {
		t.Fatalf("want total 84000, got %s", total)
	}
}

func TestCheckoutSnapshotsItems(t *testing.T) {
	c := New()
	c.Add(1, 1)
	c.Add(2, 2)

	items, total, err := c.Checkout(testCatalog())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
	if items[0].Name != "Tesla Model 3" || items[0].Image != "https://cdn.test/m3.jpg" {
		t.Fatalf("bad snapshot: %+v", items[0])
	}
	if items[1].Image != "" {
		t.Fatalf("want empty image for listing without photos, got %q", items[1].Image)
	}
	if !total.Equal(decimal.NewFromInt(98000)) {
		t.Fatalf("want total 98000, got %s", total)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	c := New()
	if _, _, err := c.Checkout(testCatalog()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}

	// A cart whose every line stopped resolving is empty too.
	c.Add(99, 1)
	if _, _, err := c.Checkout(testCatalog()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty for unresolvable cart, got %v", err)
	}

	c.Clear()
	if c.Count() != 0 {
		t.Fatalf("clear left %d units", c.Count())
	}
}
