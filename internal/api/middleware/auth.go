package middleware

import (
	"context"
	"net/http"

	"music_charts_api/internal/common"
	"music_charts_api/internal/common/security"
	"music_charts_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UsernameCtxKey contextKey = "username"
	UserRoleCtxKey contextKey = "userRole"
)

// Authenticator requires a verified access token on the request. It relies
// on jwtauth.Verifier having already parsed the Authorization header, and
// additionally rejects refresh tokens presented as access tokens.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}

		if security.TokenType(claims) != security.TokenTypeAccess {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		userID, err := security.UserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		username, err := security.SubjectFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		role, err := security.RoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		ctx = context.WithValue(ctx, UsernameCtxKey, username)
		ctx = context.WithValue(ctx, UserRoleCtxKey, model.Role(role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group behind an allow-list of roles. The
// hierarchy is flat: admin does not imply editor unless both are listed.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(UserRoleCtxKey).(model.Role)
			if !ok || !allowed[role] {
				common.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext returns the authenticated user's id.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

// GetUserRoleFromContext returns the authenticated user's role.
func GetUserRoleFromContext(ctx context.Context) (model.Role, bool) {
	role, ok := ctx.Value(UserRoleCtxKey).(model.Role)
	return role, ok
}
