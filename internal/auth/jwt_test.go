package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := jwtSecret
	if secret == "" {
		jwtSecret = nil
	} else {
		jwtSecret = []byte(secret)
	}
	t.Cleanup(func() { jwtSecret = prev })
}

func TestInit(t *testing.T) {
	withSecret(t, "")

	t.Run("missing secret disables auth", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		assert.Error(t, Init())
		assert.False(t, Enabled())
	})

	t.Run("secret enables auth", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		require.NoError(t, Init())
		assert.True(t, Enabled())
	})
}

func TestTokenRoundTrip(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateToken("op-1", "maria", "operator")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.OperatorID)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "pi-extraction-service", claims.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	withSecret(t, "secret-one")
	token, err := GenerateToken("op-1", "maria", "operator")
	require.NoError(t, err)

	withSecret(t, "secret-two")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := GetClaimsFromContext(r.Context()); err == nil {
			w.Header().Set("X-Operator", claims.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := JWTMiddleware(next)

	t.Run("disabled passes everything through", func(t *testing.T) {
		withSecret(t, "")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("open paths skip the check", func(t *testing.T) {
		withSecret(t, "test-secret")
		for _, path := range []string{"/health", "/api/login"} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})

	t.Run("protected route without token", func(t *testing.T) {
		withSecret(t, "test-secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("protected route with valid token", func(t *testing.T) {
		withSecret(t, "test-secret")
		token, err := GenerateToken("op-1", "maria", "operator")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "maria", rec.Header().Get("X-Operator"))
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		withSecret(t, "test-secret")
		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
