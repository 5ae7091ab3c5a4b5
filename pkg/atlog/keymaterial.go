package atlog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyMaterial is a secp256k1 key pair stored as uppercase hex, matching the
// on-disk/wire representation used throughout the ATRealTimeLog format.
// Once constructed, a KeyMaterial is immutable.
type KeyMaterial struct {
	// PublicKey is the uppercase hex of the untagged (X||Y, 64-byte) affine
	// public point: 128 hex characters.
	PublicKey string

	// PrivateKey is the uppercase hex of the 32-byte scalar: 64 hex
	// characters.
	PrivateKey string

	priv *btcec.PrivateKey
}

// RandomKeyMaterial samples a fresh secp256k1 key pair from a
// cryptographically secure source.
func RandomKeyMaterial() (*KeyMaterial, error) {
	priv, err := btcec.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("atlog: generate key: %w", err)
	}
	return keyMaterialFromPrivateKey(priv)
}

// KeyMaterialFromPrivateHex parses a 64-character uppercase-or-lowercase hex
// private key scalar. It rejects malformed hex, wrong lengths, a zero
// scalar, and a scalar outside the secp256k1 group order.
func KeyMaterialFromPrivateHex(s string) (*KeyMaterial, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidSecret, len(raw))
	}

	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(raw)
	if overflow {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidSecret)
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: scalar is zero", ErrInvalidSecret)
	}

	priv := btcec.NewPrivateKey(&scalar)
	return keyMaterialFromPrivateKey(priv)
}

func keyMaterialFromPrivateKey(priv *btcec.PrivateKey) (*KeyMaterial, error) {
	pub := priv.PubKey()
	untagged, err := untaggedFromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	privBytes := priv.Serialize()
	return &KeyMaterial{
		PublicKey:  strings.ToUpper(hex.EncodeToString(untagged)),
		PrivateKey: strings.ToUpper(hex.EncodeToString(privBytes)),
		priv:       priv,
	}, nil
}

// untaggedFromPublicKey strips the SEC1 0x04 tag from an uncompressed
// public key serialization, returning the 64-byte X||Y form carried on the
// wire by this format.
func untaggedFromPublicKey(pub *btcec.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: point at infinity", ErrInvalidPublicKey)
	}
	full := pub.SerializeUncompressed()
	if len(full) != untaggedPublicKeyLength+1 {
		return nil, fmt.Errorf("%w: unexpected point encoding", ErrInvalidPublicKey)
	}
	out := make([]byte, untaggedPublicKeyLength)
	copy(out, full[1:])
	return out, nil
}

// publicKeyFromUntagged reconstructs a secp256k1 public key from the 64-byte
// untagged X||Y representation used on disk, prepending the SEC1 0x04 tag
// before parsing.
func publicKeyFromUntagged(untagged []byte) (*btcec.PublicKey, error) {
	if len(untagged) != untaggedPublicKeyLength {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPublicKey, untaggedPublicKeyLength, len(untagged))
	}
	tagged := make([]byte, 0, untaggedPublicKeyLength+1)
	tagged = append(tagged, 0x04)
	tagged = append(tagged, untagged...)

	pub, err := btcec.ParsePubKey(tagged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// PublicUntaggedBytes returns the 64-byte X||Y affine encoding of this key
// pair's public point.
func (k *KeyMaterial) PublicUntaggedBytes() ([]byte, error) {
	if k == nil || k.priv == nil {
		return nil, fmt.Errorf("%w: nil key material", ErrInvalidSecret)
	}
	return untaggedFromPublicKey(k.priv.PubKey())
}

// ECDH derives the raw 32-byte shared secret (the X coordinate of the
// scalar-multiplied point) between this key pair's private scalar and the
// given peer's untagged public key. ECDH(A.priv, B.pub) and
// ECDH(B.priv, A.pub) are byte-for-byte equal for any two key pairs A, B.
func (k *KeyMaterial) ECDH(peerUntagged []byte) ([]byte, error) {
	if k == nil || k.priv == nil {
		return nil, fmt.Errorf("%w: nil key material", ErrInvalidSecret)
	}
	peerPub, err := publicKeyFromUntagged(peerUntagged)
	if err != nil {
		return nil, err
	}

	var point, result secp256k1.JacobianPoint
	peerPub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&k.priv.Key, &point, &result)
	result.ToAffine()

	xBytes := result.X.Bytes()
	out := make([]byte, len(xBytes))
	copy(out, xBytes[:])
	return out, nil
}

// PublicHexToUntagged decodes a 128-character hex-encoded untagged public
// key (the wire/PublicKey representation used throughout this format) into
// its raw 64-byte X||Y form, validating that it is a well-formed
// secp256k1 point.
func PublicHexToUntagged(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if _, err := publicKeyFromUntagged(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// randomBytes reads n cryptographically secure random bytes. Used by
// RandomIV.
func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("atlog: read random bytes: %w", err)
	}
	return buf, nil
}
