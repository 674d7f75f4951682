package authtoken_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManishBastola/bank-app/pkg/authtoken"
)

func TestIssueAndVerify(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-signing-key"))

	token, err := codec.Issue("alice", 42, "CUSTOMER", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claim, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claim.Subject)
	assert.Equal(t, int64(42), claim.UserID)
	assert.Equal(t, "CUSTOMER", claim.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claim.ExpiresAt, 5*time.Second)
}

func TestVerify_Expired(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-signing-key"))

	token, err := codec.Issue("alice", 42, "CUSTOMER", -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, authtoken.ErrExpired)
}

func TestVerify_WrongKey(t *testing.T) {
	signer := authtoken.NewCodec("bank-app", []byte("key-a"))
	verifier := authtoken.NewCodec("bank-app", []byte("key-b"))

	token, err := signer.Issue("alice", 42, "CUSTOMER", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, authtoken.ErrSignatureInvalid)
}

func TestVerify_TamperedPayload(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-signing-key"))

	token, err := codec.Issue("alice", 42, "CUSTOMER", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = strings.Repeat("A", len(parts[1]))
	tampered := strings.Join(parts, ".")

	_, err = codec.Verify(tampered)
	assert.Error(t, err)
}

func TestVerify_MissingTimestampClaims(t *testing.T) {
	key := []byte("test-signing-key")
	codec := authtoken.NewCodec("bank-app", key)

	// Foreign issuers may mint tokens without exp or iat; a correctly
	// signed one must be rejected, not crash verification.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "alice",
		"userId": 42,
		"role":   "CUSTOMER",
	})
	token, err := foreign.SignedString(key)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = codec.Verify(token)
	})
	assert.ErrorIs(t, err, authtoken.ErrMalformed)
}

func TestVerify_Malformed(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-signing-key"))

	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, authtoken.ErrMalformed)
}

func TestVerify_RotatedKeyStillAccepted(t *testing.T) {
	oldCodec := authtoken.NewCodec("bank-app", []byte("old-key"))

	token, err := oldCodec.Issue("bob", 7, "EMPLOYEE", time.Hour)
	require.NoError(t, err)

	// After rotation the new codec signs with the new key but still accepts
	// tokens minted under the old one.
	rotated := authtoken.NewCodec("bank-app", []byte("new-key"), []byte("old-key"))

	claim, err := rotated.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claim.UserID)

	// A token from the new key verifies too.
	fresh, err := rotated.Issue("bob", 7, "EMPLOYEE", time.Hour)
	require.NoError(t, err)
	_, err = rotated.Verify(fresh)
	assert.NoError(t, err)
}
