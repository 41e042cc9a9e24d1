package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

func sign(t *testing.T, claims Claims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestDecodeValidToken(t *testing.T) {
	d := NewHMACDecoder(secret)

	token := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ID:        "user-1",
		ProfileID: "profile-1",
		Username:  "alice",
	}, secret)

	identity, err := d.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "profile-1", identity.ProfileID)
	assert.Equal(t, "alice", identity.Username)
}

func TestDecodeLegacySnakeCaseProfileID(t *testing.T) {
	d := NewHMACDecoder(secret)

	token := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ProfileIDSnake: "profile-legacy",
	}, secret)

	identity, err := d.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "profile-legacy", identity.ProfileID)
}

func TestDecodeEmptyToken(t *testing.T) {
	d := NewHMACDecoder(secret)

	_, err := d.Decode("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestDecodeWrongSecret(t *testing.T) {
	d := NewHMACDecoder(secret)

	token := sign(t, Claims{ProfileID: "profile-1"}, "some-other-secret")
	_, err := d.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeExpiredToken(t *testing.T) {
	d := NewHMACDecoder(secret)

	token := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		ProfileID: "profile-1",
	}, secret)

	_, err := d.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecodeMissingProfileID(t *testing.T) {
	d := NewHMACDecoder(secret)

	token := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ID:       "user-1",
		Username: "alice",
	}, secret)

	_, err := d.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsNonHMACAlgorithm(t *testing.T) {
	d := NewHMACDecoder(secret)

	// alg=none with an empty signature.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ProfileID: "profile-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = d.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeGarbage(t *testing.T) {
	d := NewHMACDecoder(secret)

	_, err := d.Decode("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
