package atlog

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hlhr202/atlog-go/pkg/atlog/logging"
)

// recordOutcome distinguishes the reasons ReadRecord can return no record
// without that being an error: a clean end of stream, a decrypted payload
// that came back empty, or a mode byte whose compress/encrypt nibble
// doesn't decode to a known value. None of these abort the stream with an
// error; they are the sentinel stops spec.md §4.5/§7/§9 requires.
type recordOutcome int

const (
	outcomeOK recordOutcome = iota
	outcomeEOF
	outcomeShort
	outcomeInvalidMode
)

// Reader parses the ATRealTimeLog framing from an underlying io.Reader. It
// is a single-pass state machine: ReadHeader must be called once before
// any ReadRecord call. Reader is not safe for concurrent use.
type Reader struct {
	br      *bufio.Reader
	pos     int64
	version FileVersion

	privateKey *KeyMaterial
	cipher     *Cipher

	streaming *streamingDecompressor
	log       logging.Logger
}

// WithLogger attaches a logging.Logger that receives one Debug event per
// decoded record. No plaintext, key, or IV material is ever logged; only
// record metadata (length, modes).
func (r *Reader) WithLogger(l logging.Logger) *Reader {
	if l == nil {
		l = logging.Noop()
	}
	r.log = l
	return r
}

// NewReader returns a Reader that treats compressed record payloads as
// independent one-shot ZLIB streams. This is the default, normative mode,
// matching NewWriter. privateKey may be nil if the caller never intends to
// read encrypted records; ReadRecord returns ErrDecryption if it
// encounters one without a key.
func NewReader(src io.Reader, privateKey *KeyMaterial) (*Reader, error) {
	r := &Reader{br: bufio.NewReaderSize(src, 64*1024), privateKey: privateKey, log: logging.Noop()}
	if privateKey != nil {
		c, err := NewCipher(privateKey)
		if err != nil {
			return nil, err
		}
		r.cipher = c
	}
	return r, nil
}

// NewStreamingReader returns a Reader matched to NewStreamingWriter: ZLIB
// payloads are inflated against one shared, long-lived dictionary instead
// of being treated as independent streams.
func NewStreamingReader(src io.Reader, privateKey *KeyMaterial) (*Reader, error) {
	r, err := NewReader(src, privateKey)
	if err != nil {
		return nil, err
	}
	r.streaming = newStreamingDecompressor()
	return r, nil
}

// Position returns the number of bytes consumed from the underlying source
// so far.
func (r *Reader) Position() int64 {
	return r.pos
}

// Version returns the file version read by ReadHeader.
func (r *Reader) Version() FileVersion {
	return r.version
}

func (r *Reader) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	k, err := io.ReadFull(r.br, buf)
	r.pos += int64(k)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadHeader validates and consumes the fixed file header: magic, version,
// proto_name_length, proto_name, sync_marker. It must be called exactly
// once, before any ReadRecord call.
func (r *Reader) ReadHeader() error {
	magic, err := r.readFull(4)
	if err != nil {
		return fmt.Errorf("atlog: read magic: %w", err)
	}
	if [4]byte(magic) != MagicNumber {
		return ErrInvalidMagic
	}

	versionB, err := r.readFull(1)
	if err != nil {
		return fmt.Errorf("atlog: read version: %w", err)
	}
	version := FileVersion(versionB[0])
	if version != FileVersionV3 && version != FileVersionV4 {
		return ErrInvalidVersion
	}
	r.version = version

	nameLenB, err := r.readFull(2)
	if err != nil {
		return fmt.Errorf("atlog: read proto_name_length: %w", err)
	}
	nameLen := binary.LittleEndian.Uint16(nameLenB)

	if _, err := r.readFull(int(nameLen)); err != nil {
		return fmt.Errorf("atlog: read proto_name: %w", err)
	}

	marker, err := r.readFull(8)
	if err != nil {
		return fmt.Errorf("atlog: read sync marker: %w", err)
	}
	if [8]byte(marker) != SyncMarker {
		return ErrInvalidSyncMarker
	}
	r.log.Debug(context.Background(), "read header", "version", version)
	return nil
}

// ReadRecord reads and decodes the next record, returning its plaintext.
// A nil slice with a nil error means a clean end of stream: the caller
// should stop reading. A non-nil error means the stream is corrupt or
// unreadable and must not be retried.
func (r *Reader) ReadRecord() ([]byte, error) {
	plaintext, outcome, err := r.readRecord()
	if err != nil {
		return nil, err
	}
	if outcome != outcomeOK {
		return nil, nil
	}
	return plaintext, nil
}

// ReadAll calls fn with the decoded plaintext of every remaining record, in
// order, stopping at the first clean end of stream. If fn returns an
// error, ReadAll stops immediately and returns that error unwrapped.
func (r *Reader) ReadAll(fn func([]byte) error) error {
	for {
		rec, err := r.ReadRecord()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// readRecord is the core state-machine step. It mirrors the reference
// reader's use of sentinel, non-error outcomes for "nothing here yet" so
// that a caller looping until end-of-stream never has to special-case
// bufio short reads against genuine framing errors.
func (r *Reader) readRecord() ([]byte, recordOutcome, error) {
	prefix, err := r.peekOrEOF(minRecordPrefix)
	if err != nil {
		return nil, 0, err
	}
	if prefix == nil {
		return nil, outcomeEOF, nil
	}

	modeByte, err := r.readFull(1)
	if err != nil {
		return nil, 0, fmt.Errorf("atlog: read mode: %w", err)
	}
	compress, encrypt := decodeMode(modeByte[0])
	if !compress.valid() || !encrypt.valid() {
		return nil, outcomeInvalidMode, nil
	}

	var iv, ephemeralPub []byte
	if encrypt == EncryptAES {
		iv, err = r.readFull(ivLength)
		if err != nil {
			return nil, 0, fmt.Errorf("atlog: read iv: %w", err)
		}
		ephemeralPub, err = r.readFull(untaggedPublicKeyLength)
		if err != nil {
			return nil, 0, fmt.Errorf("atlog: read ephemeral public key: %w", err)
		}
	}

	lenB, err := r.readFull(2)
	if err != nil {
		return nil, 0, fmt.Errorf("atlog: read payload length: %w", err)
	}
	payloadLen := binary.LittleEndian.Uint16(lenB)
	if payloadLen == 0 || int(payloadLen) > SingleLogContentMaxLength {
		return nil, 0, ErrInvalidLogLength
	}

	payload, err := r.readFull(int(payloadLen))
	if err != nil {
		return nil, 0, fmt.Errorf("atlog: read payload: %w", err)
	}

	marker, err := r.readFull(8)
	if err != nil {
		return nil, 0, fmt.Errorf("atlog: read record sync marker: %w", err)
	}
	if [8]byte(marker) != SyncMarker {
		return nil, 0, ErrInvalidSyncMarker
	}

	if encrypt == EncryptAES {
		if r.cipher == nil {
			return nil, 0, fmt.Errorf("%w: no private key configured", ErrDecryption)
		}
		if err := r.cipher.DecryptInPlace(ephemeralPub, iv, payload); err != nil {
			return nil, 0, err
		}
	}

	if len(payload) == 0 {
		return nil, outcomeShort, nil
	}

	if compress == CompressZlib {
		if r.streaming != nil {
			payload, err = r.streaming.decompress(payload)
		} else {
			payload, err = inflate(payload)
		}
		if err != nil {
			return nil, 0, err
		}
	}

	r.log.Debug(context.Background(), "read record", "compress", compress, "encrypt", encrypt, "payload_len", len(payload))
	return payload, outcomeOK, nil
}

// peekOrEOF forces a bufio.Reader refill attempt for n bytes before
// declaring clean end of stream: Peek alone can return a short buffer
// merely because the underlying reader hasn't been asked to fill it yet,
// which is not the same as the stream genuinely ending. Any shortfall
// against n at this point — zero bytes or a stray handful too small to
// ever form a complete record — is treated as a clean stop rather than a
// truncation error; readRecord has not yet committed to parsing a record,
// so there is nothing to call corrupt.
func (r *Reader) peekOrEOF(n int) ([]byte, error) {
	b, err := r.br.Peek(n)
	if err == nil {
		return b, nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, nil
	}
	return nil, fmt.Errorf("atlog: peek: %w", err)
}
