package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babel-bridge/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName: "babel-bridge",
		JWTSecret:   "test-secret",
		JWTExpire:   time.Hour,
	}
}

func newValidator(t *testing.T, cfg *config.Config) *Validator {
	t.Helper()
	v, err := NewValidator(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func TestIssueAndParse(t *testing.T) {
	v := newValidator(t, testConfig())

	token, err := v.Issue("user-1", "anna")
	require.NoError(t, err)

	p, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "user-1", Username: "anna"}, p)
}

func TestParseRejects(t *testing.T) {
	v := newValidator(t, testConfig())

	other := newValidator(t, &config.Config{JWTSecret: "other-secret", JWTExpire: time.Hour})
	foreign, err := other.Issue("user-1", "anna")
	require.NoError(t, err)

	expired := newValidator(t, testConfig())
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := expired.Issue("user-1", "anna")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
		"alg none":     unsigned,
		"no expiry":    noExpiry,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Parse(token)
			assert.Error(t, err)
		})
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := newValidator(t, testConfig())
	token, err := v.Issue("user-1", "anna")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", v.Middleware(), func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "username": p.Username})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"user-1","username":"anna"}`, w.Body.String())
			}
		})
	}
}

func TestJWKSProviderTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.AuthJWKSEnabled = true
	cfg.AuthJWKSURL = server.URL
	cfg.AuthIssuer = "https://id.example.com"
	cfg.AuthAudience = "babel"
	v := newValidator(t, cfg)

	sign := func(claims jwt.MapClaims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = "test-key"
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	p, err := v.Parse(sign(jwt.MapClaims{
		"sub": "ext-1", "preferred_username": "olga", "iss": "https://id.example.com", "aud": "babel", "exp": exp,
	}))
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "ext-1", Username: "olga"}, p)

	_, err = v.Parse(sign(jwt.MapClaims{
		"sub": "ext-1", "iss": "https://evil.example.com", "aud": "babel", "exp": exp,
	}))
	assert.Error(t, err)

	_, err = v.Parse(sign(jwt.MapClaims{
		"sub": "ext-1", "iss": "https://id.example.com", "aud": "someone-else", "exp": exp,
	}))
	assert.Error(t, err)
}

func TestRSATokensRejectedWithoutJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "ext-1", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	v := newValidator(t, testConfig())
	_, err = v.Parse(token)
	assert.Error(t, err)
}
