package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

type contextKey string

// contextSubjectKey holds the authenticated user's id, set by the auth
// middleware after token verification.
const contextSubjectKey contextKey = "subject"

// ErrorResponse is the uniform error body for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a domain error onto an HTTP status. Anything that
// is neither a services.Error nor a store.ErrNotFound is a server fault.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		writeError(w, statusForKind(svcErr.Kind), svcErr.Message)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindAuth:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// userIDFromContext extracts the authenticated user's id. The bool reports
// whether a verified subject was present at all.
func userIDFromContext(r *http.Request) (int, bool) {
	switch v := r.Context().Value(contextSubjectKey).(type) {
	case int:
		return v, true
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func invalidQueryError(param string) error {
	return errors.New("invalid " + param + " query parameter")
}

func parseIDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
