package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

// OrderHandler serves checkout and order administration endpoints.
type OrderHandler struct {
	orderService *services.OrderService
	userService  *services.UserService
	jwtSecret    string
}

func NewOrderHandler(orderService *services.OrderService, userService *services.UserService, jwtSecret string) *OrderHandler {
	return &OrderHandler{orderService: orderService, userService: userService, jwtSecret: jwtSecret}
}

// OrderRouter mounts the order endpoints. Checkout is open to guests; a
// valid bearer token attaches ownership opportunistically.
func (h *OrderHandler) OrderRouter() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(OptionalAuth(h.jwtSecret))
		r.Post("/", h.create)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.jwtSecret))
		r.Get("/user", h.listOwn)
		r.Get("/{orderID}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(h.userService))
			r.Get("/showallorders", h.listAll)
			r.Patch("/{orderID}/status", h.updateStatus)
		})
	})
	return r
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ownerID *int
	if userID, ok := userIDFromContext(r); ok {
		ownerID = &userID
	}

	order, err := h.orderService.Create(r.Context(), input, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.orderService.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	requester, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	order, err := h.orderService.Get(r.Context(), orderID, requester)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) listAll(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.orderService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func parseOrderFilter(r *http.Request) (store.OrderFilter, error) {
	q := r.URL.Query()
	filter := store.OrderFilter{Status: q.Get("status")}

	if raw := q.Get("user_id"); raw != "" {
		userID, err := strconv.Atoi(raw)
		if err != nil || userID < 1 {
			return store.OrderFilter{}, invalidQueryError("user_id")
		}
		filter.UserID = userID
	}

	if raw := q.Get("start_date"); raw != "" {
		start, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return store.OrderFilter{}, invalidQueryError("start_date")
		}
		filter.StartDate = &start
	}
	if raw := q.Get("end_date"); raw != "" {
		end, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return store.OrderFilter{}, invalidQueryError("end_date")
		}
		// Make the bound inclusive of the whole day.
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	return filter, nil
}
