package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/driveline-motors/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type fakeOrderRepo struct {
	orders map[int]types.Order
	nextID int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int]types.Order{}, nextID: 1}
}

func (f *fakeOrderRepo) Get(_ context.Context, id int) (types.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return types.Order{}, store.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) Create(_ context.Context, order types.Order) (types.Order, error) {
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID int) ([]types.Order, error) {
	orders := []types.Order{}
	for _, order := range f.orders {
		if order.UserID != nil && *order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter store.OrderFilter) ([]types.Order, error) {
	orders := []types.Order{}
	for _, order := range f.orders {
		if filter.Status != "" && order.OrderStatus != filter.Status {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id int, status string) (types.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return types.Order{}, store.ErrNotFound
	}
	order.OrderStatus = status
	f.orders[id] = order
	return order, nil
}

func orderTestRouter(t *testing.T) (*chi.Mux, *fakeOrderRepo, *fakeUserRepo) {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	userRepo := newFakeUserRepo()
	orderService := services.NewOrderService(orderRepo, nil)
	userService := services.NewUserService(userRepo)
	handler := NewOrderHandler(orderService, userService, testSecret)

	r := chi.NewRouter()
	r.Mount("/api/order", handler.OrderRouter())
	return r, orderRepo, userRepo
}

func checkoutPayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"car_id": 1, "name": "Tesla Model S", "price": "79990", "quantity": 1},
		},
		"total_amount": "79990",
		"shipping_address": map[string]string{
			"first_name": "Alice",
			"last_name":  "Smith",
			"email":      "alice@example.com",
			"street":     "1 Main St",
			"city":       "Springfield",
			"state":      "IL",
			"zip_code":   "62704",
			"country":    "USA",
			"phone":      "555-0100",
		},
	}
}

func postOrder(t *testing.T, router http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(checkoutPayload())
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/order/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutAsGuest(t *testing.T) {
	router, repo, _ := orderTestRouter(t)

	rec := postOrder(t, router, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}

	order := repo.orders[1]
	if order.UserID != nil {
		t.Fatalf("guest order should have no owner: %+v", order.UserID)
	}
	if order.OrderStatus != types.OrderStatusPending {
		t.Fatalf("want pending, got %q", order.OrderStatus)
	}
}

func TestCheckoutAttachesOwnerFromToken(t *testing.T) {
	router, repo, userRepo := orderTestRouter(t)
	user := userRepo.seed(t, "alice", types.RoleCustomer)

	token, err := issueToken(testSecret, user.ID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := postOrder(t, router, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}

	order := repo.orders[1]
	if order.UserID == nil || *order.UserID != user.ID {
		t.Fatalf("owner not attached: %+v", order.UserID)
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	router, repo, userRepo := orderTestRouter(t)
	owner := userRepo.seed(t, "alice", types.RoleCustomer)
	stranger := userRepo.seed(t, "mallory", types.RoleCustomer)
	admin := userRepo.seed(t, "ada", types.RoleAdmin)

	ownerID := owner.ID
	repo.orders[1] = types.Order{ID: 1, UserID: &ownerID, OrderStatus: types.OrderStatusPending, TotalAmount: decimal.NewFromInt(1)}
	repo.nextID = 2

	get := func(userID int) *httptest.ResponseRecorder {
		token, err := issueToken(testSecret, userID, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/order/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(owner.ID); rec.Code != http.StatusOK {
		t.Fatalf("owner: want 200, got %d", rec.Code)
	}
	if rec := get(stranger.ID); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger: want 403, got %d", rec.Code)
	}
	if rec := get(admin.ID); rec.Code != http.StatusOK {
		t.Fatalf("admin: want 200, got %d", rec.Code)
	}
}

func TestUpdateOrderStatusIsAdminOnly(t *testing.T) {
	router, repo, userRepo := orderTestRouter(t)
	customer := userRepo.seed(t, "carl", types.RoleCustomer)
	admin := userRepo.seed(t, "ada", types.RoleAdmin)

	repo.orders[1] = types.Order{ID: 1, OrderStatus: types.OrderStatusPending, TotalAmount: decimal.NewFromInt(1)}
	repo.nextID = 2

	patch := func(userID int, status string) *httptest.ResponseRecorder {
		token, err := issueToken(testSecret, userID, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		body, _ := json.Marshal(map[string]string{"status": status})
		req := httptest.NewRequest(http.MethodPatch, "/api/order/1/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := patch(customer.ID, types.OrderStatusShipped); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: want 403, got %d", rec.Code)
	}
	if rec := patch(admin.ID, "bogus"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: want 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := patch(admin.ID, types.OrderStatusShipped); rec.Code != http.StatusOK {
		t.Fatalf("admin: want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.orders[1].OrderStatus != types.OrderStatusShipped {
		t.Fatalf("status not applied: %q", repo.orders[1].OrderStatus)
	}
}
