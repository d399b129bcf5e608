package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/driveline-motors/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is how long an issued bearer token stays valid.
const tokenTTL = 72 * time.Hour

// AuthHandler serves account endpoints and owns token issuance.
type AuthHandler struct {
	userService *services.UserService
	jwtSecret   string
}

func NewAuthHandler(userService *services.UserService, jwtSecret string) *AuthHandler {
	return &AuthHandler{userService: userService, jwtSecret: jwtSecret}
}

// UserRouter mounts the account endpoints.
func (h *AuthHandler) UserRouter() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.jwtSecret))
		r.Get("/profile", h.profile)
		r.Patch("/profile", h.updateProfile)
		r.Patch("/password", h.changePassword)
	})
	return r
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.Signup(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var update services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user types.User) {
	token, err := issueToken(h.jwtSecret, user.ID, tokenTTL)
	if err != nil {
		log.Printf("failed to issue token for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, status, authResponse{
		Token:    token,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

// issueToken signs a token carrying only the user id as its subject. Role is
// deliberately absent; authorization re-reads it from storage on every
// request so demotions take effect immediately.
func issueToken(secret string, userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseTokenSubject(secret, tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, errors.New("invalid token subject")
	}
	return userID, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified subject in the request context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			userID, err := parseTokenSubject(jwtSecret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Request is not authorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the verified subject to the context when a valid
// bearer token is present, and lets the request proceed anonymously
// otherwise. Invalid tokens are logged, not rejected.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := parseTokenSubject(jwtSecret, token)
			if err != nil {
				log.Printf("ignoring invalid bearer token: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin re-fetches the authenticated user and rejects non-admins.
// Must be mounted after RequireAuth.
func RequireAdmin(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := userIDFromContext(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Request is not authorized")
				return
			}
			if user.Role != types.RoleAdmin {
				writeError(w, http.StatusForbidden, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
