package atlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomKeyMaterialShape(t *testing.T) {
	k, err := RandomKeyMaterial()
	require.NoError(t, err)
	require.Len(t, k.PrivateKey, 64)
	require.Len(t, k.PublicKey, 128)
	require.True(t, isHex(k.PrivateKey))
	require.True(t, isHex(k.PublicKey))
	require.Equal(t, strings.ToUpper(k.PrivateKey), k.PrivateKey, "PrivateKey must be uppercase hex")
	require.Equal(t, strings.ToUpper(k.PublicKey), k.PublicKey, "PublicKey must be uppercase hex")
}

func TestKeyMaterialFromPrivateHexRoundTrip(t *testing.T) {
	k, err := RandomKeyMaterial()
	require.NoError(t, err)

	k2, err := KeyMaterialFromPrivateHex(k.PrivateKey)
	require.NoError(t, err)
	require.Equal(t, k.PublicKey, k2.PublicKey)
}

func TestKeyMaterialFromPrivateHexRejectsZero(t *testing.T) {
	_, err := KeyMaterialFromPrivateHex(strings.Repeat("00", 32))
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestKeyMaterialFromPrivateHexRejectsBadLength(t *testing.T) {
	_, err := KeyMaterialFromPrivateHex("abcd")
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestKeyMaterialFromPrivateHexRejectsBadHex(t *testing.T) {
	_, err := KeyMaterialFromPrivateHex(strings.Repeat("zz", 32))
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestECDHIsSymmetric(t *testing.T) {
	a, err := RandomKeyMaterial()
	require.NoError(t, err)
	b, err := RandomKeyMaterial()
	require.NoError(t, err)

	aPub, err := a.PublicUntaggedBytes()
	require.NoError(t, err)
	bPub, err := b.PublicUntaggedBytes()
	require.NoError(t, err)

	sharedA, err := a.ECDH(bPub)
	require.NoError(t, err)
	sharedB, err := b.ECDH(aPub)
	require.NoError(t, err)

	require.Equal(t, sharedA, sharedB)
	require.NotEmpty(t, sharedA)
}

func TestPublicHexToUntaggedRejectsGarbage(t *testing.T) {
	_, err := PublicHexToUntagged(strings.Repeat("ff", 64))
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
