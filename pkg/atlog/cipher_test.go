package atlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherEncryptDecryptRoundTrip(t *testing.T) {
	server, err := RandomKeyMaterial()
	require.NoError(t, err)
	ephemeral, err := RandomKeyMaterial()
	require.NoError(t, err)

	serverPub, err := server.PublicUntaggedBytes()
	require.NoError(t, err)
	ephemeralPub, err := ephemeral.PublicUntaggedBytes()
	require.NoError(t, err)

	iv, err := RandomIV()
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	buf := append([]byte(nil), plaintext...)

	encCipher, err := NewCipher(ephemeral)
	require.NoError(t, err)
	require.NoError(t, encCipher.EncryptInPlace(serverPub, iv, buf))
	require.NotEqual(t, plaintext, buf)

	decCipher, err := NewCipher(server)
	require.NoError(t, err)
	require.NoError(t, decCipher.DecryptInPlace(ephemeralPub, iv, buf))
	require.Equal(t, plaintext, buf)
}

func TestCipherWrongKeyProducesGarbageNotPanic(t *testing.T) {
	server, err := RandomKeyMaterial()
	require.NoError(t, err)
	wrongServer, err := RandomKeyMaterial()
	require.NoError(t, err)
	ephemeral, err := RandomKeyMaterial()
	require.NoError(t, err)

	serverPub, err := server.PublicUntaggedBytes()
	require.NoError(t, err)
	ephemeralPub, err := ephemeral.PublicUntaggedBytes()
	require.NoError(t, err)

	iv, err := RandomIV()
	require.NoError(t, err)

	plaintext := []byte("unauthenticated stream cipher, no integrity check")
	buf := append([]byte(nil), plaintext...)

	encCipher, err := NewCipher(ephemeral)
	require.NoError(t, err)
	require.NoError(t, encCipher.EncryptInPlace(serverPub, iv, buf))

	decCipher, err := NewCipher(wrongServer)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		_ = decCipher.DecryptInPlace(ephemeralPub, iv, buf)
	})
	require.NotEqual(t, plaintext, buf)
}

func TestRandomIVLength(t *testing.T) {
	iv, err := RandomIV()
	require.NoError(t, err)
	require.Len(t, iv, ivLength)
}

func TestCipherRejectsWrongIVLength(t *testing.T) {
	k, err := RandomKeyMaterial()
	require.NoError(t, err)
	pub, err := k.PublicUntaggedBytes()
	require.NoError(t, err)

	c, err := NewCipher(k)
	require.NoError(t, err)

	err = c.EncryptInPlace(pub, []byte{1, 2, 3}, []byte("x"))
	require.ErrorIs(t, err, ErrDecryption)
}
