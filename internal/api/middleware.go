package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gigboard/internal/models"
)

// UserContextKey holds the authenticated user in the request context.
var UserContextKey = &contextKey{"User"}

type contextKey struct {
	name string
}

// UserDirectory loads users for the auth middleware.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
}

// AuthMiddleware validates a bearer token signed with the shared secret and
// loads the user it names into the request context. Tokens carry the user id
// in the subject claim.
func AuthMiddleware(secret string, users UserDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := parseToken(token, secret)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unknown user")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose user does not hold the role. Admins
// pass every check.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusForbidden, "no user in context")
				return
			}
			if user.Role != role && user.Role != models.RoleAdmin {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user placed by AuthMiddleware.
func CurrentUser(r *http.Request) (models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(models.User)
	return user, ok
}

func parseToken(token, secret string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	if !parsed.Valid {
		return 0, jwt.ErrTokenUnverifiable
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}
