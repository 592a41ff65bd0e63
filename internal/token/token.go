// Package token issues and verifies the signed, self-contained
// credentials used for stateless authentication. A token carries only a
// subject, an issue time, and an expiry; the server keeps no record of
// outstanding tokens.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Callers collapse all of them into a single
// unauthenticated outcome; the distinction never reaches the client.
var (
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformed        = errors.New("malformed token")
)

// Codec seals and opens tokens with an HMAC-SHA256 signature. The key is
// the Base64-decoded deployment secret; one key per deployment.
type Codec struct {
	key []byte
	ttl time.Duration
}

// NewCodec decodes the Base64 secret and fixes the token lifetime.
func NewCodec(base64Secret string, ttl time.Duration) (*Codec, error) {
	if base64Secret == "" {
		return nil, errors.New("token secret is required")
	}
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode token secret: %w", err)
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Codec{key: key, ttl: ttl}, nil
}

// Issue builds a signed token for subject, valid from now until
// now + ttl. Pure computation, no side effects.
func (c *Codec) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Verify checks the signature, structure, and expiry of tokenString and
// returns the embedded subject. Expiry is strict: a token is rejected
// once the current time reaches its expiry.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return c.key, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		default:
			return "", ErrMalformed
		}
	}
	if !tok.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}
