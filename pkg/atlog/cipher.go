package atlog

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// aesKeyLength is the AES-128 key size in bytes. The format truncates the
// 32-byte ECDH shared secret to this many bytes; no KDF is applied, by
// design (see spec §4.2).
const aesKeyLength = 16

// Cipher wraps a single KeyMaterial and performs the ECDH-derived
// AES-128-CFB encrypt/decrypt operations the format requires. A Cipher's
// key is immutable, so a single instance may be shared across concurrent
// callers: every encrypt/decrypt call derives its own stream state from the
// caller-supplied peer key and IV.
//
// The format is unauthenticated AES-CFB (see spec §9); Cipher intentionally
// does not add a MAC or switch to an AEAD mode, to preserve bit-for-bit
// compatibility with existing ATRealTimeLog files.
type Cipher struct {
	key *KeyMaterial
}

// NewCipher wraps the given KeyMaterial for encrypt/decrypt use.
func NewCipher(key *KeyMaterial) (*Cipher, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil key material", ErrInvalidSecret)
	}
	return &Cipher{key: key}, nil
}

// KeyMaterial returns the key pair this Cipher was constructed with.
func (c *Cipher) KeyMaterial() *KeyMaterial {
	return c.key
}

// RandomIV returns 16 fresh cryptographically random bytes suitable for use
// as an AES-128-CFB initialization vector.
func RandomIV() ([]byte, error) {
	return randomBytes(ivLength)
}

// aesKeyFromSharedSecret derives this Cipher's AES-128 key against the
// given peer's untagged public key.
func (c *Cipher) aesKeyFromSharedSecret(peerUntagged []byte) ([]byte, error) {
	shared, err := c.key.ECDH(peerUntagged)
	if err != nil {
		return nil, err
	}
	if len(shared) < aesKeyLength {
		return nil, fmt.Errorf("%w: shared secret too short", ErrDecryption)
	}
	return shared[:aesKeyLength], nil
}

// EncryptInPlace derives an ECDH shared secret with peerUntagged, truncates
// it to an AES-128 key, and encrypts buf in place using AES-128-CFB with
// the given 16-byte iv.
func (c *Cipher) EncryptInPlace(peerUntagged, iv, buf []byte) error {
	stream, err := c.newCFBStream(peerUntagged, iv, true)
	if err != nil {
		return err
	}
	stream.XORKeyStream(buf, buf)
	return nil
}

// DecryptInPlace mirrors EncryptInPlace for the decrypting side.
func (c *Cipher) DecryptInPlace(peerUntagged, iv, buf []byte) error {
	stream, err := c.newCFBStream(peerUntagged, iv, false)
	if err != nil {
		return err
	}
	stream.XORKeyStream(buf, buf)
	return nil
}

func (c *Cipher) newCFBStream(peerUntagged, iv []byte, encrypt bool) (cipher.Stream, error) {
	if len(iv) != ivLength {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecryption, ivLength, len(iv))
	}
	key, err := c.aesKeyFromSharedSecret(peerUntagged)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if encrypt {
		return cipher.NewCFBEncrypter(block, iv), nil
	}
	return cipher.NewCFBDecrypter(block, iv), nil
}
