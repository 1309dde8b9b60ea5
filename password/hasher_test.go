package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMultiVerifiesBothFormats(t *testing.T) {
	argon, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	multi := NewMulti(argon)

	argonHash, err := multi.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	bcryptHash, err := NewBcrypt(bcrypt.MinCost).Hash("admin123")
	if err != nil {
		t.Fatalf("bcrypt Hash error: %v", err)
	}

	for name, hash := range map[string]string{"argon2id": argonHash, "bcrypt": bcryptHash} {
		ok, err := multi.Verify("admin123", hash)
		if err != nil || !ok {
			t.Fatalf("%s: expected match, got ok=%v err=%v", name, ok, err)
		}
		ok, err = multi.Verify("wrong-pass", hash)
		if err != nil || ok {
			t.Fatalf("%s: expected mismatch, got ok=%v err=%v", name, ok, err)
		}
	}
}

func TestMultiRejectsUnknownFormat(t *testing.T) {
	argon, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if _, err := NewMulti(argon).Verify("admin123", "md5:abc"); !errors.Is(err, ErrUnknownHashFormat) {
		t.Fatalf("expected ErrUnknownHashFormat, got %v", err)
	}
}

func TestBcryptCostFallback(t *testing.T) {
	if b := NewBcrypt(99); b.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", b.cost)
	}
}
