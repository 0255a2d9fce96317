package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sweetworks/sweetshop-api/internal/core/port"
)

var (
	// ErrMalformedToken indicates the token cannot be parsed at all.
	ErrMalformedToken = errors.New("token: malformed")
	// ErrSignatureInvalid indicates the token was signed with a different key.
	ErrSignatureInvalid = errors.New("token: signature invalid")
	// ErrExpiredToken indicates the token was valid once but has expired.
	ErrExpiredToken = errors.New("token: expired")
)

// AccessClaims is the verified payload of an access token.
type AccessClaims struct {
	Subject   string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var _ port.AccessTokenIssuer = (*TokenCodec)(nil)

// TokenCodec mints and verifies HS256-signed access tokens. Every minted
// token carries a unique JTI so individual tokens can be revoked before
// their expiry.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec for the given signing secret and token TTL.
func NewTokenCodec(secret string, issuer string, ttl time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}

	return &TokenCodec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock overrides the time source, used by tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// TTL reports the lifetime applied to minted tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue implements port.AccessTokenIssuer.
func (c *TokenCodec) Issue(subject string) (string, error) {
	return c.Mint(subject)
}

// Mint signs a fresh access token for the subject.
func (c *TokenCodec) Mint(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token: subject is required")
	}

	now := c.now()

	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string, returning its claims. The
// error distinguishes expiry from tampering so callers can report expiry
// without leaking signature details.
func (c *TokenCodec) Verify(tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithTimeFunc(c.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformedToken
		}
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrMalformedToken
	}

	out := &AccessClaims{
		Subject: claims.Subject,
		JTI:     claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}
