package httpapi

import (
	"context"
	"net/http"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Identity is the caller resolved by the auth gateway. Token validation and
// refresh live in front of this service; an expired session arrives here as
// missing headers and is answered with SESSION_EXPIRED so the client runs
// its one refresh attempt.
type Identity struct {
	UserID    string
	CompanyID string
	Role      Role
}

type contextKey struct{}

var identityKey contextKey

// Auth resolves the caller identity from the gateway-forwarded headers.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID:    r.Header.Get("X-User-Id"),
			CompanyID: r.Header.Get("X-Company-Id"),
			Role:      Role(r.Header.Get("X-User-Role")),
		}
		if id.UserID == "" || id.CompanyID == "" {
			writeErrorCode(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		}
		switch id.Role {
		case RoleUser, RoleAdmin, RoleSuperAdmin:
		default:
			writeErrorCode(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeErrorCode(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient role")
		})
	}
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
