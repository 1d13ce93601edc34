package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	gate := NewGate("secret")

	assert.Equal(t, Allowed, gate.Authorize(&Claims{Role: RoleAdmin}))
	assert.Equal(t, Denied, gate.Authorize(&Claims{Role: "customer"}))
	assert.Equal(t, Denied, gate.Authorize(&Claims{}))
	assert.Equal(t, Denied, gate.Authorize(nil))
}

func TestParseToken(t *testing.T) {
	gate := NewGate("secret")

	t.Run("round trips an issued token", func(t *testing.T) {
		token, err := gate.IssueToken("ops@example.com", RoleAdmin, time.Hour)
		require.NoError(t, err)

		claims, err := gate.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, claims.Role)
		assert.Equal(t, "ops@example.com", claims.Subject)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		token, err := gate.IssueToken("ops@example.com", RoleAdmin, -time.Minute)
		require.NoError(t, err)

		_, err = gate.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		token, err := NewGate("other").IssueToken("ops@example.com", RoleAdmin, time.Hour)
		require.NoError(t, err)

		_, err = gate.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects unsigned tokens", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = gate.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects everything without a secret", func(t *testing.T) {
		token, err := gate.IssueToken("ops@example.com", RoleAdmin, time.Hour)
		require.NoError(t, err)

		_, err = NewGate("").ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRequireAdmin(t *testing.T) {
	gate := NewGate("secret")
	adminToken, err := gate.IssueToken("ops@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)
	customerToken, err := gate.IssueToken("ada@example.com", "customer", time.Hour)
	require.NoError(t, err)

	var seen *Claims
	handler := gate.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"admin token passes", "Bearer " + adminToken, http.StatusCreated},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + adminToken, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"non-admin role", "Bearer " + customerToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusCreated {
				require.NotNil(t, seen)
				assert.Equal(t, "ops@example.com", seen.Subject)
			}
		})
	}
}
