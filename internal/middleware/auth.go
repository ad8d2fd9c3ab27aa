package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"ledger-service/internal/pkg/response"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxRole      contextKey = "role"
)

// AuthMiddleware validates bearer tokens issued by the auth service and
// puts the authenticated account ID and role into the request context.
type AuthMiddleware struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), logger: logger}
}

// Require rejects requests without a valid token.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.logger.Debug("rejected token", zap.Error(err))
			response.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		sub, _ := claims.GetSubject()
		accountID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || accountID <= 0 {
			response.Error(w, http.StatusUnauthorized, "invalid subject claim")
			return
		}

		role, _ := claims["role"].(string)

		ctx := context.WithValue(r.Context(), ctxAccountID, accountID)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates the review and policy endpoints on the admin role.
// Must run after Require.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(ctxRole).(string)
		if role != "admin" {
			response.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccountIDFromContext returns the authenticated account ID.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxAccountID).(int64)
	return id, ok
}
