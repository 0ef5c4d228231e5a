package middleware

import (
	"context"
	"net/http"

	"phonebook-backend/internal/services"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "PhonebookAuth"

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// RequireAuth gates a request on a valid session. A missing, invalid or
// expired cookie is rejected with 401; a token that verifies but whose user
// record no longer exists is rejected with 403. On success the resolved
// identity is attached to the request context.
func RequireAuth(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := userService.VerifyToken(cookie.Value)
			if err != nil {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				respondError(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user.ID, user.Username)))
		})
	}
}

// OptionalAuth resolves the session identity when it can and proceeds
// anonymously on any failure. Used by endpoints that behave differently for
// anonymous and authenticated callers.
func OptionalAuth(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := userService.VerifyToken(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user.ID, user.Username)))
		})
	}
}

func withIdentity(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

// GetUserID extracts the authenticated user ID from the context.
// Returns empty string for anonymous requests.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetUsername extracts the authenticated username from the context.
// Returns empty string for anonymous requests.
func GetUsername(ctx context.Context) string {
	username, ok := ctx.Value(usernameKey).(string)
	if !ok {
		return ""
	}
	return username
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
