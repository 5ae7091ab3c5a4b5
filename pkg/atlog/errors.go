package atlog

import "errors"

// Sentinel errors returned by the codec. Framing and crypto failures are
// returned as one of these (optionally wrapped with extra context via
// fmt.Errorf's %w); callers should compare with errors.Is.
var (
	// ErrInvalidSecret means a private key hex string was malformed or its
	// scalar was zero or out of the secp256k1 group order.
	ErrInvalidSecret = errors.New("atlog: invalid secret key")

	// ErrInvalidPublicKey means a peer or ephemeral public key did not
	// decode to a point on secp256k1.
	ErrInvalidPublicKey = errors.New("atlog: invalid public key")

	// ErrInvalidMagic means the stream did not begin with MagicNumber.
	ErrInvalidMagic = errors.New("atlog: invalid magic number")

	// ErrInvalidVersion means the header's version byte was neither 3 nor 4.
	ErrInvalidVersion = errors.New("atlog: invalid file version")

	// ErrInvalidSyncMarker means a sync marker (header or record trailer)
	// did not match SyncMarker exactly.
	ErrInvalidSyncMarker = errors.New("atlog: invalid sync marker")

	// ErrInvalidLogLength means a record declared a payload_length outside
	// (0, SingleLogContentMaxLength].
	ErrInvalidLogLength = errors.New("atlog: invalid log length")

	// ErrDecryption means AES-CFB decryption could not be completed (bad
	// IV length, invalid key material, or no private key configured).
	ErrDecryption = errors.New("atlog: decryption failed")

	// ErrDecompression means zlib inflation failed on a record payload.
	ErrDecompression = errors.New("atlog: decompression failed")

	// ErrPayloadTooLarge means a caller asked Writer to emit a plaintext
	// whose encoded length (after compression, if any) cannot fit the
	// 16-bit length field or exceeds SingleLogContentMaxLength.
	ErrPayloadTooLarge = errors.New("atlog: payload exceeds maximum record length")

	// ErrEmptyPayload means a caller asked Writer to emit a zero-length
	// plaintext, which the format cannot represent (payload_length must be
	// strictly positive).
	ErrEmptyPayload = errors.New("atlog: payload must not be empty")
)
