package atlog

// MagicNumber identifies an ATRealTimeLog file. It is the first four bytes
// of every stream.
var MagicNumber = [4]byte{0x1B, 0xAD, 0xC0, 0xDE}

// SyncMarker terminates the header and every record. Eight bytes, fixed.
var SyncMarker = [8]byte{0xB7, 0xDB, 0xE7, 0xDB, 0x80, 0xAD, 0xD9, 0x57}

// ProtoName is the protocol-name string embedded in the header. Its content
// is not interpreted by the reader; only its length is used to size the
// following read.
const ProtoName = "ATRealTimeLog"

// FileVersion identifies which header version wrote a stream. Versions 3
// and 4 are both accepted on read; Writer always emits 4.
type FileVersion uint8

const (
	// FileVersionV3 is accepted for backward-compatible reads only.
	FileVersionV3 FileVersion = 3
	// FileVersionV4 is the version emitted by Writer.
	FileVersionV4 FileVersion = 4
)

// SingleLogContentMaxLength bounds the payload_length field: a record's
// payload (after any compression, before any encryption padding concerns —
// CFB has none) must fit in this many bytes.
const SingleLogContentMaxLength = 16 * 1024

// CompressMode selects the compression applied to a record's payload.
type CompressMode uint8

const (
	// CompressNone leaves the payload untouched.
	CompressNone CompressMode = 1
	// CompressZlib deflates the payload with RFC 1950 ZLIB framing.
	CompressZlib CompressMode = 2
)

func (m CompressMode) valid() bool {
	return m == CompressNone || m == CompressZlib
}

// EncryptMode selects the encryption applied to a record's payload.
type EncryptMode uint8

const (
	// EncryptNone leaves the payload in the clear (after compression).
	EncryptNone EncryptMode = 1
	// EncryptAES seals the payload with ECDH-derived AES-128-CFB.
	EncryptAES EncryptMode = 2
)

func (m EncryptMode) valid() bool {
	return m == EncryptNone || m == EncryptAES
}

// ivLength is the AES-128-CFB initialization vector size in bytes.
const ivLength = 16

// untaggedPublicKeyLength is the size of an X||Y affine secp256k1 point
// without the SEC1 0x04 prefix.
const untaggedPublicKeyLength = 64

// encodeMode packs the (compress, encrypt) pair into the on-disk mode byte:
// high nibble is compress, low nibble is encrypt.
func encodeMode(compress CompressMode, encrypt EncryptMode) byte {
	return byte(compress)<<4 | byte(encrypt)
}

// decodeMode splits a mode byte into its compress/encrypt nibbles. It does
// not validate that the nibbles are known values; callers check that with
// CompressMode.valid/EncryptMode.valid.
func decodeMode(b byte) (CompressMode, EncryptMode) {
	return CompressMode(b >> 4), EncryptMode(b & 0x0F)
}

// minRecordPrefix is the fewest bytes read_record needs buffered before it
// can even identify the record shape: a mode byte, a payload length, and a
// terminating sync marker with nothing in between (the all-plaintext,
// zero-length-impossible floor used purely as the "is there anything left"
// probe described in spec.md §4.5 step 1).
const minRecordPrefix = 1 + 2 + 8
