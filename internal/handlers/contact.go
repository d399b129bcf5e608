package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// ContactHandler serves the public contact form and its admin inbox.
type ContactHandler struct {
	contactService *services.ContactService
	userService    *services.UserService
	jwtSecret      string
}

func NewContactHandler(contactService *services.ContactService, userService *services.UserService, jwtSecret string) *ContactHandler {
	return &ContactHandler{contactService: contactService, userService: userService, jwtSecret: jwtSecret}
}

// ContactRouter mounts the contact endpoints.
func (h *ContactHandler) ContactRouter() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(OptionalAuth(h.jwtSecret))
		r.Post("/", h.create)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.jwtSecret))
		r.Use(RequireAdmin(h.userService))
		r.Get("/", h.list)
		r.Patch("/{contactID}/status", h.updateStatus)
	})
	return r
}

type createContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *ContactHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var userID *int
	if id, ok := userIDFromContext(r); ok {
		userID = &id
	}

	contact, err := h.contactService.Create(r.Context(), req.Name, req.Email, req.Subject, req.Message, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) list(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contactService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

type updateContactStatusRequest struct {
	Status string `json:"status"`
}

func (h *ContactHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	contactID, err := parseIDParam(r, "contactID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact id")
		return
	}

	var req updateContactStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.contactService.UpdateStatus(r.Context(), contactID, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contact status updated"})
}
