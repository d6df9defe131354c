package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
)

// NewTestCookieSigner returns a CookieSigner backed by a freshly generated P-256 key.
// For unit tests only.
func NewTestCookieSigner() (*CookieSigner, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewCookieSigner(key, key.Public(), "test-issuer", "test-audience"), nil
}
