package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestVerifyToken_Valid(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":   "auth0|user-1",
		"email": "u@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	claims, err := VerifyToken(raw, testSecret)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "auth0|user-1" || claims.Email != "u@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyToken_MissingAndGarbage(t *testing.T) {
	if _, err := VerifyToken("", testSecret); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("empty token: want ErrTokenMissing, got %v", err)
	}
	if _, err := VerifyToken("   ", testSecret); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("blank token: want ErrTokenMissing, got %v", err)
	}
	if _, err := VerifyToken("not.a.jwt", testSecret); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("garbage token: want ErrTokenMalformed, got %v", err)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()}, "other-secret")
	if _, err := VerifyToken(raw, testSecret); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("wrong secret: want ErrTokenMalformed, got %v", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
	if _, err := VerifyToken(raw, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: want ErrTokenExpired, got %v", err)
	}
}

func TestVerifyToken_NoSubject(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	if _, err := VerifyToken(raw, testSecret); !errors.Is(err, ErrTokenNoSubject) {
		t.Fatalf("no subject: want ErrTokenNoSubject, got %v", err)
	}

	raw = signToken(t, jwt.MapClaims{"sub": "  ", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	if _, err := VerifyToken(raw, testSecret); !errors.Is(err, ErrTokenNoSubject) {
		t.Fatalf("blank subject: want ErrTokenNoSubject, got %v", err)
	}
}

func TestVerifyToken_RejectsNonHMAC(t *testing.T) {
	// alg=none tokens must never verify.
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := VerifyToken(raw, testSecret); err == nil {
		t.Fatalf("alg=none token must be rejected")
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	if _, err := FromAuthorizationHeader(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("empty header: want ErrTokenMissing, got %v", err)
	}
	if _, err := FromAuthorizationHeader("Basic abc"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("non-bearer header: want ErrTokenMalformed, got %v", err)
	}
	if _, err := FromAuthorizationHeader("Bearer "); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("bearer without token: want ErrTokenMalformed, got %v", err)
	}
	got, err := FromAuthorizationHeader("Bearer abc.def.ghi")
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("valid header = (%q, %v), want token", got, err)
	}
}
