package oauth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims CustomClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() CustomClaims {
	return CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		ClientType:       "ops",
		GrantType:        GrantClientCredentials,
		Scopes:           []string{ScopeLogsRead},
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"missing", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"no token", "Bearer", ""},
		{"extra parts", "Bearer a b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/logs", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestValidateToken(t *testing.T) {
	v := NewValidator(testSecret)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noClient := validClaims()
	noClient.ClientType = ""
	widget := validClaims()
	widget.GrantType = "widget"
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"valid", sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()), true},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), validClaims()), false},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims()), false},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), expired), false},
		{"missing expiry", sign(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry), false},
		{"missing client type", sign(t, jwt.SigningMethodHS256, []byte(testSecret), noClient), false},
		{"unsupported grant", sign(t, jwt.SigningMethodHS256, []byte(testSecret), widget), false},
		{"garbage", "not-a-token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidateToken(tt.token)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, "ops", got.ClientType)
				assert.Equal(t, []string{ScopeLogsRead}, got.Scopes)
				assert.True(t, got.HasScope(ScopeLogsRead))
				assert.False(t, got.HasScope(ScopeLogsWrite))
			}
		})
	}
}

func TestIssueToken(t *testing.T) {
	token, err := IssueToken(testSecret, "ops", []string{ScopeLogsRead, ScopeChatWrite}, time.Hour)
	require.NoError(t, err)

	got := NewValidator(testSecret).ValidateToken(token)
	require.True(t, got.Valid)
	assert.Equal(t, GrantClientCredentials, got.GrantType)
	assert.True(t, got.HasScope(ScopeChatWrite))
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)

	_, err = IssueToken("", "ops", nil, time.Hour)
	assert.Error(t, err)
	_, err = IssueToken(testSecret, "ops", nil, 0)
	assert.Error(t, err)
}
