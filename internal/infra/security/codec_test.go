package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec(testSecret, "sweetshop-test", ttl)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	return codec
}

func TestTokenCodecMintAndVerify(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	token, err := codec.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.JTI == "" {
		t.Error("expected non-empty JTI")
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		t.Errorf("expiry %v not after issue %v", claims.ExpiresAt, claims.IssuedAt)
	}
}

func TestTokenCodecUniqueJTI(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, err := codec.Mint("user-123")
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}

		claims, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}

		if seen[claims.JTI] {
			t.Fatalf("duplicate JTI %q", claims.JTI)
		}
		seen[claims.JTI] = true
	}
}

func TestTokenCodecExpiry(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	codec := newTestCodec(t, 15*time.Minute).WithClock(func() time.Time { return base })

	token, err := codec.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// Still valid just inside the window.
	codec.WithClock(func() time.Time { return base.Add(14 * time.Minute) })
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("Verify before expiry: %v", err)
	}

	codec.WithClock(func() time.Time { return base.Add(16 * time.Minute) })
	if _, err := codec.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify after expiry = %v, want ErrExpiredToken", err)
	}
}

func TestTokenCodecTamperedPayload(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	token, err := codec.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}

	// Flip a character in the payload; the signature no longer matches.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := codec.Verify(tampered); err == nil {
		t.Fatal("expected verification failure for tampered token")
	}
}

func TestTokenCodecWrongKey(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	other, err := NewTokenCodec("another-secret-value-entirely-0000", "sweetshop-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, err := other.Mint("user-123")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify = %v, want ErrSignatureInvalid", err)
	}
}

func TestTokenCodecMalformed(t *testing.T) {
	codec := newTestCodec(t, time.Hour)

	for _, tc := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(tc); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Verify(%q) = %v, want ErrMalformedToken", tc, err)
		}
	}
}
