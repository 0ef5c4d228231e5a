package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"phonebook-backend/internal/middleware"
	"phonebook-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, login, logout and session introspection
type AuthHandler struct {
	userService  *services.UserService
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie controls the
// Secure flag on the session cookie and is off in local development.
func NewAuthHandler(userService *services.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		secureCookie: secureCookie,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, "Username and password are required!", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			respondError(w, "Username already exists!", http.StatusBadRequest)
		case errors.Is(err, services.ErrWeakPassword):
			respondError(w, "Password must be at least 8 characters long!", http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("Failed to register user")
			respondError(w, "An error occurred while creating the user!", http.StatusInternalServerError)
		}
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	w.WriteHeader(http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(w, "Username and password do not match!", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("Failed to authenticate user")
		respondError(w, "Server Error", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.userService.IssueToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		respondError(w, "Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
	})

	respondJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout only
// clears the cookie; an already-captured token stays valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
	})

	w.WriteHeader(http.StatusOK)
}

// Current handles GET /api/auth/current. Anonymous callers get a null
// username, never an error.
func (h *AuthHandler) Current(w http.ResponseWriter, r *http.Request) {
	var username *string
	if name := middleware.GetUsername(r.Context()); name != "" {
		username = &name
	}

	respondJSON(w, http.StatusOK, map[string]*string{"username": username})
}
