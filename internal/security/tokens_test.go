package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"
)

func TestGenerateSessionToken_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("GenerateSessionToken: %v", err)
		}
		if len(tok) != 43 {
			t.Fatalf("len(token) = %d, want 43", len(tok))
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestCookieSigner_SignAndVerify(t *testing.T) {
	s, err := NewTestCookieSigner()
	if err != nil {
		t.Fatalf("NewTestCookieSigner: %v", err)
	}
	value, err := s.Sign("tok-123", "u1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	got, err := s.Verify(value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("Verify = %q, want tok-123", got)
	}
}

func TestCookieSigner_RejectsExpired(t *testing.T) {
	s, _ := NewTestCookieSigner()
	value, err := s.Sign("tok", "u1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := s.Verify(value); err != ErrInvalidToken {
		t.Errorf("Verify expired = %v, want ErrInvalidToken", err)
	}
}

func TestCookieSigner_RejectsForeignKey(t *testing.T) {
	a, _ := NewTestCookieSigner()
	b, _ := NewTestCookieSigner()
	value, _ := a.Sign("tok", "u1", time.Now().Add(time.Hour))
	if _, err := b.Verify(value); err != ErrInvalidToken {
		t.Errorf("Verify with other key = %v, want ErrInvalidToken", err)
	}
}

func TestCookieSigner_RejectsWrongAudience(t *testing.T) {
	key, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	issuing := NewCookieSigner(key, key.Public(), "test-issuer", "other-audience")
	verifying := NewCookieSigner(key, key.Public(), "test-issuer", "test-audience")
	value, _ := issuing.Sign("tok", "u1", time.Now().Add(time.Hour))
	if _, err := verifying.Verify(value); err != ErrInvalidToken {
		t.Errorf("Verify wrong audience = %v, want ErrInvalidToken", err)
	}
}

func TestCookieSigner_RejectsGarbage(t *testing.T) {
	s, _ := NewTestCookieSigner()
	for _, v := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := s.Verify(v); err != ErrInvalidToken {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", v, err)
		}
	}
}
