package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the dashboard reporting endpoints.
type AdminHandler struct {
	statsService *services.StatsService
	userService  *services.UserService
	jwtSecret    string
}

func NewAdminHandler(statsService *services.StatsService, userService *services.UserService, jwtSecret string) *AdminHandler {
	return &AdminHandler{statsService: statsService, userService: userService, jwtSecret: jwtSecret}
}

// AdminRouter mounts the reporting endpoints. Everything here is admin-only.
func (h *AdminHandler) AdminRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireAuth(h.jwtSecret))
	r.Use(RequireAdmin(h.userService))

	r.Get("/stats/overview", h.overview)
	r.Get("/stats/sales", h.sales)
	r.Get("/stats/inventory", h.inventory)
	r.Get("/stats/recent-activity", h.recentActivity)
	return r
}

func (h *AdminHandler) overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Overview(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var start, end *time.Time
	if raw := q.Get("start_date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidQueryError("start_date").Error())
			return
		}
		start = &parsed
	}
	if raw := q.Get("end_date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidQueryError("end_date").Error())
			return
		}
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		end = &parsed
	}

	buckets, err := h.statsService.Sales(r.Context(), q.Get("period"), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (h *AdminHandler) inventory(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Inventory(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) recentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidQueryError("limit").Error())
			return
		}
		limit = parsed
	}

	orders, err := h.statsService.RecentActivity(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
