// Package auth verifies bearer tokens issued by the external identity
// provider. This service never mints tokens; it only checks the HMAC
// signature against the shared secret and extracts the stable subject claim
// used as the external user id.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verification errors. Handlers map all of them to 401.
var (
	ErrTokenMissing   = errors.New("bearer token missing")
	ErrTokenMalformed = errors.New("bearer token malformed")
	ErrTokenExpired   = errors.New("bearer token expired")
	ErrTokenNoSubject = errors.New("bearer token has no subject")
)

// Claims are the verified token claims this service consumes.
type Claims struct {
	Subject string
	Email   string
}

// VerifyToken parses and validates a compact JWT against the shared HMAC
// secret and returns the claims. Only HMAC-family signing methods are
// accepted.
func VerifyToken(raw, secret string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMissing
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenMalformed
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return nil, ErrTokenNoSubject
	}
	email, _ := claims["email"].(string)

	return &Claims{Subject: sub, Email: email}, nil
}

// FromAuthorizationHeader extracts the compact token from a standard
// "Bearer <token>" Authorization header value.
func FromAuthorizationHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrTokenMissing
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || strings.TrimSpace(token) == "" {
		return "", ErrTokenMalformed
	}
	return strings.TrimSpace(token), nil
}
