package security

import (
	"strings"
	"testing"

	"github.com/sweetworks/sweetshop-api/internal/infra/config"
)

func newTestHasher() *Argon2Hasher {
	// Low-cost parameters keep the test fast.
	return NewArgon2Hasher(config.Argon2Settings{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func TestArgon2HashAndVerify(t *testing.T) {
	h := newTestHasher()

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Errorf("unexpected encoding prefix: %q", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("expected matching password to verify")
	}

	ok, err = h.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("expected mismatched password to fail")
	}
}

func TestArgon2HashesAreSalted(t *testing.T) {
	h := newTestHasher()

	first, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password should differ")
	}
}

func TestArgon2VerifyRejectsGarbage(t *testing.T) {
	h := newTestHasher()

	if _, err := h.Verify("anything", "not-a-hash"); err == nil {
		t.Error("expected error for malformed hash")
	}
}
