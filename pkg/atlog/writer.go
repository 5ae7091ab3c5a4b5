package atlog

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hlhr202/atlog-go/pkg/atlog/logging"
)

// Writer serializes records into the ATRealTimeLog framing onto an
// underlying io.Writer. A Writer is not safe for concurrent use; callers
// that need concurrent producers should serialize their WriteRecord calls
// (for example behind a mutex) or use one Writer per output stream.
type Writer struct {
	sink io.Writer
	pos  int64

	// ephemeral, when non-nil, is reused across every encrypted record
	// written by WriteRecordSharedEphemeral instead of being freshly
	// sampled each time; WriteRecord never uses it. Set by
	// WriteRecordSharedEphemeral's first encrypted call. This trades forward secrecy
	// for fewer ECDH computations and is not the normative default.
	ephemeral *KeyMaterial

	streaming *streamingCompressor
	log       logging.Logger
}

// NewWriter returns a Writer that emits one-shot (non-streaming) ZLIB
// frames for compressed records. This is the default, normative mode.
func NewWriter(sink io.Writer) *Writer {
	return &Writer{sink: sink, log: logging.Noop()}
}

// NewStreamingWriter returns a Writer whose ZLIB compressor keeps its
// sliding-window dictionary across records, sync-flushing after each one
// instead of starting a fresh stream. Records written this way must be
// read back with a matching NewStreamingReader; they are not individually
// decodable by a one-shot ZLIB consumer. See spec.md §4.3.
func NewStreamingWriter(sink io.Writer) *Writer {
	return &Writer{sink: sink, streaming: newStreamingCompressor(), log: logging.Noop()}
}

// WithLogger attaches a logging.Logger that receives one Debug event per
// WriteHeader/WriteRecord call. No plaintext, key, or IV material is ever
// logged; only record metadata (length, modes).
func (w *Writer) WithLogger(l logging.Logger) *Writer {
	if l == nil {
		l = logging.Noop()
	}
	w.log = l
	return w
}

// Position returns the number of bytes written to the underlying sink so
// far.
func (w *Writer) Position() int64 {
	return w.pos
}

func (w *Writer) write(b []byte) error {
	n, err := w.sink.Write(b)
	w.pos += int64(n)
	if err != nil {
		return fmt.Errorf("atlog: write: %w", err)
	}
	return nil
}

// WriteHeader emits the fixed 28-byte file header: magic, version 4,
// proto_name_length, proto_name, sync_marker. It must be called exactly
// once, before any WriteRecord call.
func (w *Writer) WriteHeader() error {
	if err := w.write(MagicNumber[:]); err != nil {
		return err
	}
	if err := w.write([]byte{byte(FileVersionV4)}); err != nil {
		return err
	}

	nameLen := make([]byte, 2)
	binary.LittleEndian.PutUint16(nameLen, uint16(len(ProtoName)))
	if err := w.write(nameLen); err != nil {
		return err
	}
	if err := w.write([]byte(ProtoName)); err != nil {
		return err
	}
	if err := w.write(SyncMarker[:]); err != nil {
		return err
	}
	w.log.Debug(context.Background(), "wrote header", "proto_name", ProtoName, "version", FileVersionV4)
	return nil
}

// WriteRecord encodes plaintext under the given compress/encrypt modes and
// appends it as one record. For EncryptAES, a fresh ephemeral key pair is
// sampled for this record alone, giving each encrypted record its own
// forward-secret ECDH exchange; this is the normative encrypted mode.
func (w *Writer) WriteRecord(compress CompressMode, encrypt EncryptMode, serverPubHex string, plaintext []byte) error {
	return w.writeRecord(compress, encrypt, serverPubHex, plaintext, false)
}

// WriteRecordSharedEphemeral behaves like WriteRecord, except that for
// EncryptAES records it samples one ephemeral key pair the first time it is
// called and reuses it for every subsequent call on this Writer, rather
// than sampling a fresh one per record. This is a non-normative,
// weaker-forward-secrecy mode offered for writers that want to amortize the
// ECDH cost across many records; see spec.md §4.2.
func (w *Writer) WriteRecordSharedEphemeral(compress CompressMode, encrypt EncryptMode, serverPubHex string, plaintext []byte) error {
	return w.writeRecord(compress, encrypt, serverPubHex, plaintext, true)
}

func (w *Writer) writeRecord(compress CompressMode, encrypt EncryptMode, serverPubHex string, plaintext []byte, shareEphemeral bool) error {
	if !compress.valid() {
		return fmt.Errorf("atlog: invalid compress mode %d", compress)
	}
	if !encrypt.valid() {
		return fmt.Errorf("atlog: invalid encrypt mode %d", encrypt)
	}
	if len(plaintext) == 0 {
		return ErrEmptyPayload
	}

	payload := plaintext
	var err error
	switch compress {
	case CompressZlib:
		if w.streaming != nil {
			payload, err = w.streaming.compress(payload)
		} else {
			payload, err = deflate(payload)
		}
		if err != nil {
			return err
		}
	case CompressNone:
		// payload unchanged
	}

	var iv, ephemeralPub []byte
	if encrypt == EncryptAES {
		serverPub, err := PublicHexToUntagged(serverPubHex)
		if err != nil {
			return err
		}

		ephemeral, err := w.ephemeralKeyFor(shareEphemeral)
		if err != nil {
			return err
		}
		ephemeralPub, err = ephemeral.PublicUntaggedBytes()
		if err != nil {
			return err
		}

		iv, err = RandomIV()
		if err != nil {
			return err
		}

		cipher, err := NewCipher(ephemeral)
		if err != nil {
			return err
		}

		buf := make([]byte, len(payload))
		copy(buf, payload)
		if err := cipher.EncryptInPlace(serverPub, iv, buf); err != nil {
			return err
		}
		payload = buf
	}

	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > SingleLogContentMaxLength || len(payload) > 0xFFFF {
		return ErrPayloadTooLarge
	}

	record := make([]byte, 0, 1+ivLength+untaggedPublicKeyLength+2+len(payload)+8)
	record = append(record, encodeMode(compress, encrypt))
	if encrypt == EncryptAES {
		record = append(record, iv...)
		record = append(record, ephemeralPub...)
	}

	lenField := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenField, uint16(len(payload)))
	record = append(record, lenField...)
	record = append(record, payload...)
	record = append(record, SyncMarker[:]...)

	if err := w.write(record); err != nil {
		return err
	}
	w.log.Debug(context.Background(), "wrote record",
		"compress", compress, "encrypt", encrypt, "payload_len", len(payload),
		"iv", logging.Redacted("iv"))
	return nil
}

func (w *Writer) ephemeralKeyFor(shareEphemeral bool) (*KeyMaterial, error) {
	if shareEphemeral {
		if w.ephemeral == nil {
			k, err := RandomKeyMaterial()
			if err != nil {
				return nil, err
			}
			w.ephemeral = k
		}
		return w.ephemeral, nil
	}
	return RandomKeyMaterial()
}
