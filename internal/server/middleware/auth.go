package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
)

// Principal represents the authenticated admin making the request.
type Principal struct {
	AdminID  int64
	Username string
}

// Authenticate returns an HTTP middleware that requires a valid access token
// in the Authorization header ("Bearer <token>"). On success, a Principal is
// attached to the request context. On failure, a 401 JSON error response is
// returned whose context.reason is "expired-token" or "invalid-token".
func Authenticate(tokens *service.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, http.StatusUnauthorized,
					"Authentication required. Provide a Bearer access token.", "")
				return
			}

			identity, err := tokens.VerifyAccessToken(token)
			if err != nil {
				reason := service.Reason(err)
				msg := "Invalid token"
				if reason == "expired-token" {
					msg = "Token expired, please log in again"
				}
				writeAuthError(w, http.StatusUnauthorized, msg, reason)
				return
			}

			principal := &Principal{AdminID: identity.AdminID, Username: identity.Username}
			if info := requestInfoFrom(r.Context()); info != nil {
				info.adminID = principal.AdminID
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message, reason string) {
	detail := model.ErrorDetail{Code: status, Message: message}
	if reason != "" {
		detail.Context = map[string]interface{}{"reason": reason}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: detail})
}
