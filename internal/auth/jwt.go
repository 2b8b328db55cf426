// Package auth validates externally issued access tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
)

// Claims are the access token claims. UserID falls back to the subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Config configures token validation.
type Config struct {
	Secret   string        `env:"SECRET"`
	Issuer   string        `env:"ISSUER"`
	Audience string        `env:"AUDIENCE"`
	Leeway   time.Duration `env:"LEEWAY" envDefault:"30s"`
}

// ErrNoSubject is returned for a valid token that names no user.
var ErrNoSubject = errors.New("token has no subject")

// TokenValidator validates HS256 bearer tokens.
type TokenValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenValidator creates a validator. Expiry is always required; issuer
// and audience are checked when configured.
func NewTokenValidator(cfg Config) *TokenValidator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &TokenValidator{secret: []byte(cfg.Secret), parser: jwt.NewParser(opts...)}
}

// Validate parses token and returns the session it identifies.
func (v *TokenValidator) Validate(token string) (domain.Session, error) {
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return domain.Session{}, fmt.Errorf("parse access token: %w", err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.Session{}, ErrNoSubject
	}
	return domain.Session{UserID: userID, Email: claims.Email}, nil
}

// Middleware adapts v to middleware.Authenticate.
func (v *TokenValidator) Middleware() middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		s, err := v.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: s.UserID, Email: s.Email}, nil
	}
}

// SessionFromClaims converts middleware claims into a session. nil claims
// give an anonymous session.
func SessionFromClaims(c *middleware.Claims) domain.Session {
	if c == nil {
		return domain.Session{}
	}
	return domain.Session{UserID: c.UserID, Email: c.Email}
}
