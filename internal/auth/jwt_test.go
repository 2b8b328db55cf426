package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		UserID: "u1",
		Email:  "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "identity",
			Audience:  jwt.ClaimStrings{"bookreview"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestValidate_Success(t *testing.T) {
	v := NewTokenValidator(Config{Secret: testSecret, Issuer: "identity", Audience: "bookreview"})

	s, err := v.Validate(sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, domain.Session{UserID: "u1", Email: "ada@example.com"}, s)
	assert.True(t, s.Authenticated())
}

func TestValidate_SubjectFallback(t *testing.T) {
	v := NewTokenValidator(Config{Secret: testSecret})
	c := validClaims()
	c.UserID = ""
	c.Subject = "sub-7"

	s, err := v.Validate(sign(t, jwt.SigningMethodHS256, []byte(testSecret), c))
	require.NoError(t, err)
	assert.Equal(t, "sub-7", s.UserID)
}

func TestValidate_Rejections(t *testing.T) {
	v := NewTokenValidator(Config{Secret: testSecret, Issuer: "identity", Audience: "bookreview"})

	tests := []struct {
		name   string
		mutate func(c *Claims)
		key    []byte
		method jwt.SigningMethod
		want   error
	}{
		{name: "expired", mutate: func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) }, want: jwt.ErrTokenExpired},
		{name: "no expiry", mutate: func(c *Claims) { c.ExpiresAt = nil }, want: jwt.ErrTokenRequiredClaimMissing},
		{name: "wrong issuer", mutate: func(c *Claims) { c.Issuer = "elsewhere" }, want: jwt.ErrTokenInvalidIssuer},
		{name: "wrong audience", mutate: func(c *Claims) { c.Audience = jwt.ClaimStrings{"shop"} }, want: jwt.ErrTokenInvalidAudience},
		{name: "wrong key", key: []byte("another-secret-another-secret-!!"), want: jwt.ErrTokenSignatureInvalid},
		{name: "wrong algorithm", method: jwt.SigningMethodHS512, want: jwt.ErrTokenSignatureInvalid},
		{name: "no subject", mutate: func(c *Claims) { c.UserID = ""; c.Subject = "" }, want: ErrNoSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			if tt.mutate != nil {
				tt.mutate(c)
			}
			key := tt.key
			if key == nil {
				key = []byte(testSecret)
			}
			method := tt.method
			if method == nil {
				method = jwt.SigningMethodHS256
			}

			_, err := v.Validate(sign(t, method, key, c))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidate_Garbage(t *testing.T) {
	v := NewTokenValidator(Config{Secret: testSecret})
	_, err := v.Validate("not.a.token")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestMiddlewareAdapter(t *testing.T) {
	v := NewTokenValidator(Config{Secret: testSecret})
	validate := v.Middleware()

	claims, err := validate(sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, &middleware.Claims{UserID: "u1", Email: "ada@example.com"}, claims)

	_, err = validate("bad")
	assert.Error(t, err)
}

func TestSessionFromClaims(t *testing.T) {
	assert.False(t, SessionFromClaims(nil).Authenticated())
	assert.Equal(t, domain.Session{UserID: "u1", Email: "e"}, SessionFromClaims(&middleware.Claims{UserID: "u1", Email: "e"}))
}
