package middleware

import (
	"context"
	"net/http"

	"github.com/deepgram/courier/internal/services/oauth"
	"github.com/deepgram/courier/pkg/httpext"
	"github.com/deepgram/courier/pkg/logger"
)

type contextKey string

const (
	tokenValidationKey contextKey = "tokenValidation"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// validation result on the request context.
func RequireAuth(validator *oauth.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := oauth.ExtractToken(r)
			if tokenString == "" {
				httpext.JsonError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			validation := validator.ValidateToken(tokenString)
			if !validation.Valid {
				httpext.JsonError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), tokenValidationKey, &validation)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			validation := GetTokenValidation(r)
			if validation == nil {
				logger.Error(logger.MIDDLEWARE, "Scope check on %s without token validation context", r.URL.Path)
				httpext.JsonError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !validation.HasScope(scope) {
				logger.Warn(logger.MIDDLEWARE, "Access denied on %s: token for %s lacks scope %s",
					r.URL.Path, validation.ClientType, scope)
				httpext.JsonError(w, "Missing required scope", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetTokenValidation retrieves the token validation result from the request context
func GetTokenValidation(r *http.Request) *oauth.TokenValidationResult {
	if validation, ok := r.Context().Value(tokenValidationKey).(*oauth.TokenValidationResult); ok {
		return validation
	}
	return nil
}
