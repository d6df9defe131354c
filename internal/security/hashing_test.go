package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := h.Verify(hash, "s3cret-pass"); err != nil {
		t.Errorf("Verify correct password: %v", err)
	}
}

func TestHasher_VerifyWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, _ := h.Hash("right")
	if err := h.Verify(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify wrong password = %v, want ErrPasswordMismatch", err)
	}
	if err := h.Verify("not-a-hash", "right"); err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify malformed hash = %v, want bcrypt error", err)
	}
}

func TestHasher_CostClamped(t *testing.T) {
	if got := NewHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("NewHasher(0).Cost = %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(2).Cost; got != bcrypt.MinCost {
		t.Errorf("NewHasher(2).Cost = %d, want %d", got, bcrypt.MinCost)
	}
}

func TestHasher_VerifyDummy(t *testing.T) {
	NewHasher(bcrypt.MinCost).VerifyDummy("anything")
}
