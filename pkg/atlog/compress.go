package atlog

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// deflate one-shot compresses b with RFC 1950 ZLIB framing at the default
// compression level. Each call produces a complete, independently
// decodable zlib stream (header, deflate blocks, Adler-32 trailer).
func deflate(b []byte) ([]byte, error) {
	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("atlog: deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("atlog: deflate: %w", err)
	}
	return out.Bytes(), nil
}

// inflate one-shot decompresses a complete ZLIB stream produced by deflate
// (or any other one-shot ZLIB producer).
func inflate(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out, nil
}

// streamingCompressor is a long-lived, stateful ZLIB deflater used by
// NewStreamingWriter. It keeps its sliding-window dictionary across calls
// and sync-flushes after each record instead of closing the stream: the
// 2-byte zlib header is only ever written once, on the first call, exactly matching spec §4.3's "raw zlib header present (not raw
// deflate)" streaming contract. The matching streamingDecompressor expects
// chunks produced this way, not independent one-shot streams.
type streamingCompressor struct {
	out *bytes.Buffer
	w   *zlib.Writer
}

func newStreamingCompressor() *streamingCompressor {
	out := new(bytes.Buffer)
	return &streamingCompressor{out: out, w: zlib.NewWriter(out)}
}

// compress deflates b into this compressor's shared stream and sync-flushes,
// returning only the bytes produced by this call (the caller clears its own
// output buffer between records; the compressor's internal dictionary is
// preserved).
func (c *streamingCompressor) compress(b []byte) ([]byte, error) {
	c.out.Reset()
	if _, err := c.w.Write(b); err != nil {
		return nil, fmt.Errorf("atlog: streaming deflate: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return nil, fmt.Errorf("atlog: streaming deflate: %w", err)
	}
	chunk := make([]byte, c.out.Len())
	copy(chunk, c.out.Bytes())
	return chunk, nil
}

// streamingDecompressor is the reader-side counterpart to
// streamingCompressor: one long-lived ZLIB reader fed from a growable
// buffer, so the 2-byte header is consumed exactly once and every
// subsequent chunk is decoded against the same inflate window.
type streamingDecompressor struct {
	in  *bytes.Buffer
	zr  io.ReadCloser
	buf []byte
}

func newStreamingDecompressor() *streamingDecompressor {
	return &streamingDecompressor{in: new(bytes.Buffer)}
}

// decompress feeds chunk into the shared inflate stream and returns
// whatever plaintext that chunk's sync-flush boundary makes available.
func (d *streamingDecompressor) decompress(chunk []byte) ([]byte, error) {
	d.in.Write(chunk)

	if d.zr == nil {
		zr, err := zlib.NewReader(d.in)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		d.zr = zr
	}

	// The buffer is larger than the 32 KiB inflate window, so one Read
	// drains everything the decoder has ready. Once d.in is empty the
	// chunk's sync-flush block has been consumed; reading again would hit
	// EOF on d.in, which the inflater keeps as a permanent error.
	if cap(d.buf) == 0 {
		d.buf = make([]byte, 64*1024)
	}
	var out []byte
	for {
		n, err := d.zr.Read(d.buf)
		if n > 0 {
			out = append(out, d.buf[:n]...)
		}
		if err == io.EOF || (err == nil && (n == 0 || d.in.Len() == 0)) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
	}
	return out, nil
}

// Close releases the underlying inflate reader.
func (d *streamingDecompressor) Close() error {
	if d.zr != nil {
		return d.zr.Close()
	}
	return nil
}
