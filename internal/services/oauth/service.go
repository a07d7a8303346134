// Package oauth validates the bearer tokens that guard the diagnostics API.
package oauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/deepgram/courier/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const (
	GrantClientCredentials = "client_credentials"

	ScopeLogsRead  = "logs:read"
	ScopeLogsWrite = "logs:write"
	ScopeChatWrite = "chat:write"
)

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Debug(logger.MIDDLEWARE, "No Authorization header found")
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Warn(logger.MIDDLEWARE, "Malformed Authorization header")
		return ""
	}
	return parts[1]
}

type TokenValidationResult struct {
	Valid      bool
	ClientType string
	GrantType  string
	ExpiresAt  time.Time
	Scopes     []string
}

// HasScope reports whether the token was granted scope.
func (r TokenValidationResult) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type CustomClaims struct {
	jwt.RegisteredClaims
	ClientType string   `json:"ctp"`
	GrantType  string   `json:"gty"`
	Scopes     []string `json:"scp"`
}

// Validator checks HS256 tokens signed with a shared secret.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

func (v *Validator) ValidateToken(tokenString string) TokenValidationResult {
	result := TokenValidationResult{Valid: false}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		logger.Warn(logger.MIDDLEWARE, "Failed to parse token: %v", err)
		return result
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		logger.Error(logger.MIDDLEWARE, "Invalid token claims")
		return result
	}
	if claims.ClientType == "" {
		logger.Warn(logger.MIDDLEWARE, "Missing client type in token")
		return result
	}
	if claims.GrantType != GrantClientCredentials {
		logger.Warn(logger.MIDDLEWARE, "Invalid grant type in token: %s", claims.GrantType)
		return result
	}

	logger.Debug(logger.MIDDLEWARE, "Token validated for client type %s", claims.ClientType)
	result.Valid = true
	result.ClientType = claims.ClientType
	result.GrantType = claims.GrantType
	result.ExpiresAt = claims.ExpiresAt.Time
	result.Scopes = claims.Scopes
	return result
}

// IssueToken signs a client credentials token for clientType carrying scopes.
func IssueToken(secret, clientType string, scopes []string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("oauth: signing secret is empty")
	}
	if ttl <= 0 {
		return "", errors.New("oauth: token lifetime must be positive")
	}
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   clientType,
		},
		ClientType: clientType,
		GrantType:  GrantClientCredentials,
		Scopes:     scopes,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
