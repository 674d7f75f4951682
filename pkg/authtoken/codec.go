// Package authtoken mints and verifies the signed identity claims shared by
// every service boundary. One codec replaces the per-service copies of this
// logic so the claim format and key handling cannot drift.
package authtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

var (
	// ErrMalformed indicates the token could not be parsed at all.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid indicates the token was tampered with or signed
	// with a key outside the accepted set.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired indicates the token's validity window has passed.
	ErrExpired = errors.New("token expired")
)

// tokenClaims is the wire shape of an issued claim set.
type tokenClaims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HMAC-SHA256 signed claims. Verification accepts
// an ordered set of keys so a rotated-out signing key keeps verifying until
// its tokens expire. The zero value is not usable; construct with NewCodec.
// Safe for concurrent use; the codec holds no mutable state.
type Codec struct {
	issuer     string
	signingKey []byte
	verifyKeys [][]byte
}

// NewCodec builds a codec that signs with signingKey and verifies against
// signingKey followed by any previousKeys, in order.
func NewCodec(issuer string, signingKey []byte, previousKeys ...[]byte) *Codec {
	keys := make([][]byte, 0, 1+len(previousKeys))
	keys = append(keys, signingKey)
	keys = append(keys, previousKeys...)
	return &Codec{
		issuer:     issuer,
		signingKey: signingKey,
		verifyKeys: keys,
	}
}

// Issue produces a signed, self-contained claim set for the given identity.
func (c *Codec) Issue(subject string, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signingKey)
}

// Verify checks signature integrity and expiry and returns the embedded
// identity claim. It fails with ErrMalformed, ErrSignatureInvalid or
// ErrExpired; callers branch on the result rather than catching panics.
func (c *Codec) Verify(tokenString string) (domain.IdentityClaim, error) {
	for _, key := range c.verifyKeys {
		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		})
		switch {
		case err == nil && token.Valid:
			// exp and iat are optional in JWT itself; a claim set without
			// them is not one of ours. Reject instead of dereferencing nil.
			if claims.ExpiresAt == nil || claims.IssuedAt == nil {
				return domain.IdentityClaim{}, ErrMalformed
			}
			return domain.IdentityClaim{
				Subject:   claims.Subject,
				UserID:    claims.UserID,
				Role:      claims.Role,
				IssuedAt:  claims.IssuedAt.Time,
				ExpiresAt: claims.ExpiresAt.Time,
			}, nil
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.IdentityClaim{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			// Signature checked out against this key; the token is simply stale.
			return domain.IdentityClaim{}, ErrExpired
		}
		// Wrong key or tampered payload: try the next key in the set.
	}
	return domain.IdentityClaim{}, ErrSignatureInvalid
}
