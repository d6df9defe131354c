package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a signed cookie is malformed, forged or expired.
var ErrInvalidToken = errors.New("invalid token")

// sessionTokenBytes is the entropy of a session token before encoding.
const sessionTokenBytes = 32

// GenerateSessionToken returns a new unguessable session token (base64url, no padding).
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SessionClaims carries the session token inside the signed cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	Token string `json:"sid"`
}

// CookieSigner wraps session tokens into RS256/ES256 JWTs so forged cookies are rejected
// before any session lookup. The session row stays authoritative for validity.
type CookieSigner struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
}

// NewCookieSigner returns a CookieSigner that signs with privateKey and verifies with publicKey.
func NewCookieSigner(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string) *CookieSigner {
	return &CookieSigner{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
	}
}

// Sign returns the cookie value for token, valid until expiresAt.
func (s *CookieSigner) Sign(token, userID string, expiresAt time.Time) (string, error) {
	var method jwt.SigningMethod
	switch s.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidKey
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Token: token,
	}
	return jwt.NewWithClaims(method, claims).SignedString(s.privateKey)
}

// Verify checks signature, expiry, issuer and audience and returns the session token.
func (s *CookieSigner) Verify(value string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return s.publicKey, nil
		}
		return nil, ErrInvalidToken
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Token == "" {
		return "", ErrInvalidToken
	}
	return claims.Token, nil
}
